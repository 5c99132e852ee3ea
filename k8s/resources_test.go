package k8s

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestServiceManifest(t *testing.T) {
	t.Run("should expose the API port inside the cluster", func(t *testing.T) {
		// Arrange
		var svc Service

		// Act
		err := loadManifest("service.yaml", &svc)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "ClusterIP", svc.Spec.Type)
		assert.Equal(t, "dialoguereel", svc.Spec.Selector["app"])
		require.Len(t, svc.Spec.Ports, 1)
		assert.Equal(t, int32(8080), svc.Spec.Ports[0].TargetPort)
	})
}

func TestConfigMapManifest(t *testing.T) {
	t.Run("should carry a parseable application configuration", func(t *testing.T) {
		// Arrange
		var cm ConfigMap
		require.NoError(t, loadManifest("configmap.yaml", &cm))

		// Act
		var cfg struct {
			Roster   []string                  `yaml:"roster"`
			Speakers map[string]map[string]any `yaml:"speakers"`
			Server   struct {
				Address string `yaml:"address"`
			} `yaml:"server"`
			Render struct {
				WorkspaceDir string `yaml:"workspace_dir"`
			} `yaml:"render"`
		}
		err := yaml.Unmarshal([]byte(cm.Data["config.yaml"]), &cfg)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, []string{"rick", "morty"}, cfg.Roster)
		for _, name := range cfg.Roster {
			assert.Contains(t, cfg.Speakers, name, "every roster speaker needs a style")
		}
		assert.Equal(t, ":8080", cfg.Server.Address)
		assert.Equal(t, "/app/workspace", cfg.Render.WorkspaceDir)
	})

	t.Run("should keep credentials out of the config map", func(t *testing.T) {
		// Arrange
		var cm ConfigMap
		require.NoError(t, loadManifest("configmap.yaml", &cm))

		// Assert
		assert.NotContains(t, cm.Data["config.yaml"], "api_key")
		assert.NotContains(t, cm.Data["config.yaml"], "secret_key")
	})
}

func TestSecretManifest(t *testing.T) {
	t.Run("should provide provider and storage credentials", func(t *testing.T) {
		// Arrange
		var secret Secret

		// Act
		err := loadManifest("secret.yaml", &secret)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "Opaque", secret.Type)
		for _, key := range []string{"ELEVENLABS_API_KEY", "MINIO_ACCESS_KEY", "MINIO_SECRET_KEY"} {
			assert.Contains(t, secret.StringData, key)
		}
	})
}

func TestPersistentVolumeClaims(t *testing.T) {
	for _, file := range []string{"pvc-workspace.yaml", "pvc-corpus.yaml"} {
		t.Run("should request storage in "+file, func(t *testing.T) {
			// Arrange
			var pvc PersistentVolumeClaim

			// Act
			err := loadManifest(file, &pvc)

			// Assert
			require.NoError(t, err)
			assert.Contains(t, pvc.Spec.AccessModes, "ReadWriteOnce")
			assert.NotEmpty(t, pvc.Spec.Resources.Requests["storage"])
		})
	}
}

func TestManifestConsistency(t *testing.T) {
	t.Run("should reference resources that exist", func(t *testing.T) {
		// Arrange
		d := loadDeployment(t)
		var cm ConfigMap
		var secret Secret
		require.NoError(t, loadManifest("configmap.yaml", &cm))
		require.NoError(t, loadManifest("secret.yaml", &secret))

		claims := map[string]bool{}
		for _, file := range []string{"pvc-workspace.yaml", "pvc-corpus.yaml"} {
			var pvc PersistentVolumeClaim
			require.NoError(t, loadManifest(file, &pvc))
			claims[pvc.Metadata.Name] = true
		}

		// Act
		pod := d.Spec.Template.Spec

		// Assert
		for _, v := range pod.Volumes {
			if v.ConfigMap != nil {
				assert.Equal(t, cm.Metadata.Name, v.ConfigMap.Name)
			}
			if v.PersistentVolumeClaim != nil {
				assert.True(t, claims[v.PersistentVolumeClaim.ClaimName], "claim %s should exist", v.PersistentVolumeClaim.ClaimName)
			}
		}
		for _, from := range pod.Containers[0].EnvFrom {
			if from.SecretRef != nil {
				assert.Equal(t, secret.Metadata.Name, from.SecretRef.Name)
			}
		}
	})
}
