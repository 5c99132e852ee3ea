package k8s

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ObjectMeta represents object metadata
type ObjectMeta struct {
	Name   string            `yaml:"name"`
	Labels map[string]string `yaml:"labels"`
}

// Deployment represents the Kubernetes Deployment structure
type Deployment struct {
	Kind     string         `yaml:"kind"`
	Metadata ObjectMeta     `yaml:"metadata"`
	Spec     DeploymentSpec `yaml:"spec"`
}

// DeploymentSpec represents the Kubernetes Deployment specification
type DeploymentSpec struct {
	Replicas int32 `yaml:"replicas"`
	Selector struct {
		MatchLabels map[string]string `yaml:"matchLabels"`
	} `yaml:"selector"`
	Strategy struct {
		Type          string `yaml:"type"`
		RollingUpdate struct {
			MaxUnavailable string `yaml:"maxUnavailable"`
			MaxSurge       string `yaml:"maxSurge"`
		} `yaml:"rollingUpdate"`
	} `yaml:"strategy"`
	Template struct {
		Metadata ObjectMeta `yaml:"metadata"`
		Spec     PodSpec    `yaml:"spec"`
	} `yaml:"template"`
}

// PodSpec represents the pod specification
type PodSpec struct {
	SecurityContext *struct {
		RunAsUser *int64 `yaml:"runAsUser"`
		FSGroup   *int64 `yaml:"fsGroup"`
	} `yaml:"securityContext"`
	Containers []Container `yaml:"containers"`
	Volumes    []Volume    `yaml:"volumes"`
}

// Container represents a container specification
type Container struct {
	Name  string   `yaml:"name"`
	Image string   `yaml:"image"`
	Args  []string `yaml:"args"`
	Ports []struct {
		ContainerPort int32  `yaml:"containerPort"`
		Name          string `yaml:"name"`
	} `yaml:"ports"`
	Env []struct {
		Name  string `yaml:"name"`
		Value string `yaml:"value"`
	} `yaml:"env"`
	EnvFrom []struct {
		SecretRef *struct {
			Name string `yaml:"name"`
		} `yaml:"secretRef"`
	} `yaml:"envFrom"`
	Resources struct {
		Limits   map[string]string `yaml:"limits"`
		Requests map[string]string `yaml:"requests"`
	} `yaml:"resources"`
	LivenessProbe   *Probe `yaml:"livenessProbe"`
	ReadinessProbe  *Probe `yaml:"readinessProbe"`
	SecurityContext *struct {
		ReadOnlyRootFilesystem   *bool `yaml:"readOnlyRootFilesystem"`
		AllowPrivilegeEscalation *bool `yaml:"allowPrivilegeEscalation"`
		RunAsNonRoot             *bool `yaml:"runAsNonRoot"`
		Capabilities             struct {
			Drop []string `yaml:"drop"`
		} `yaml:"capabilities"`
	} `yaml:"securityContext"`
	VolumeMounts []struct {
		Name      string `yaml:"name"`
		MountPath string `yaml:"mountPath"`
	} `yaml:"volumeMounts"`
}

// Probe represents an HTTP health check probe
type Probe struct {
	HTTPGet *struct {
		Path string `yaml:"path"`
		Port int32  `yaml:"port"`
	} `yaml:"httpGet"`
	PeriodSeconds    int32 `yaml:"periodSeconds"`
	FailureThreshold int32 `yaml:"failureThreshold"`
}

// Volume represents a pod volume
type Volume struct {
	Name      string `yaml:"name"`
	ConfigMap *struct {
		Name string `yaml:"name"`
	} `yaml:"configMap"`
	PersistentVolumeClaim *struct {
		ClaimName string `yaml:"claimName"`
	} `yaml:"persistentVolumeClaim"`
}

// Service represents the Kubernetes Service structure
type Service struct {
	Metadata ObjectMeta `yaml:"metadata"`
	Spec     struct {
		Type     string            `yaml:"type"`
		Selector map[string]string `yaml:"selector"`
		Ports    []struct {
			Port       int32 `yaml:"port"`
			TargetPort int32 `yaml:"targetPort"`
		} `yaml:"ports"`
	} `yaml:"spec"`
}

// ConfigMap represents the Kubernetes ConfigMap structure
type ConfigMap struct {
	Metadata ObjectMeta        `yaml:"metadata"`
	Data     map[string]string `yaml:"data"`
}

// Secret represents the Kubernetes Secret structure
type Secret struct {
	Metadata   ObjectMeta        `yaml:"metadata"`
	Type       string            `yaml:"type"`
	StringData map[string]string `yaml:"stringData"`
}

// PersistentVolumeClaim represents the Kubernetes PVC structure
type PersistentVolumeClaim struct {
	Metadata ObjectMeta `yaml:"metadata"`
	Spec     struct {
		AccessModes []string `yaml:"accessModes"`
		Resources   struct {
			Requests map[string]string `yaml:"requests"`
		} `yaml:"resources"`
	} `yaml:"spec"`
}

func loadManifest(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}
