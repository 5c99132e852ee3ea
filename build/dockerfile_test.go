package build

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readDockerfile(t *testing.T) string {
	t.Helper()
	content, err := os.ReadFile("Dockerfile")
	require.NoError(t, err, "Dockerfile should exist in the build directory")
	return string(content)
}

func TestDockerfileStructure(t *testing.T) {
	t.Run("should use a multi-stage build", func(t *testing.T) {
		// Act
		content := readDockerfile(t)

		// Assert
		assert.Contains(t, content, "FROM golang:1.24")
		assert.Contains(t, content, "AS builder")
		assert.Contains(t, content, "COPY --from=builder")
		assert.Contains(t, content, "go build")
		assert.Contains(t, content, "./cmd/dialoguereel")
	})

	t.Run("should install ffmpeg and a caption font in the runtime image", func(t *testing.T) {
		// Act
		content := readDockerfile(t)

		// Assert
		assert.Contains(t, content, "ffmpeg")
		assert.Contains(t, content, "fonts-dejavu-core")
		assert.Contains(t, content, "rm -rf /var/lib/apt/lists/*")
	})

	t.Run("should run tests with coverage before building", func(t *testing.T) {
		// Act
		content := readDockerfile(t)

		// Assert
		assert.Contains(t, content, "go test")
		assert.Contains(t, content, "-coverprofile")
	})
}

func TestDockerfileSecurity(t *testing.T) {
	t.Run("should run as a non-root user with a health check", func(t *testing.T) {
		// Act
		content := readDockerfile(t)

		// Assert
		assert.Contains(t, content, "useradd -r")
		assert.Contains(t, content, "USER reel")
		assert.Contains(t, content, "HEALTHCHECK")
		assert.Contains(t, content, "/health")
	})

	t.Run("should not bake credentials into the image", func(t *testing.T) {
		// Act
		content := readDockerfile(t)

		// Assert
		assert.NotContains(t, content, "ELEVENLABS_API_KEY")
		assert.NotContains(t, content, "SECRET_KEY")
	})
}
