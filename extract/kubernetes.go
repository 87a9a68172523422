package extract

import (
	"github.com/goccy/go-yaml"
	appsv1 "k8s.io/api/apps/v1"
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	yamlutil "k8s.io/apimachinery/pkg/util/yaml"
	"k8s.io/client-go/kubernetes/scheme"
)

// isManifest reports whether a document looks like a
// Kubernetes object (carries apiVersion and kind).
func isManifest(ms yaml.MapSlice) bool {
	_, hasVersion := stringValue(ms, "apiVersion")
	_, hasKind := stringValue(ms, "kind")

	return hasVersion && hasKind
}

// manifestServices decodes a manifest document through
// the client-go scheme and, for workload kinds,
// collects one entry per init and regular container
// (container name, image tag). Returns false when the
// kind is unknown to the scheme or carries no pod
// spec, so the caller falls back to the generic walk.
func manifestServices(
	ms yaml.MapSlice,
	col *collection,
) bool {
	raw, err := yaml.Marshal(ms)
	if err != nil {
		return false
	}

	jsonBytes, err := yamlutil.ToJSON(raw)
	if err != nil {
		return false
	}

	obj, _, err := scheme.Codecs.
		UniversalDeserializer().
		Decode(jsonBytes, nil, nil)
	if err != nil {
		return false
	}

	spec := podSpecOf(obj)
	if spec == nil {
		return false
	}

	for _, ctr := range spec.InitContainers {
		col.add(ctr.Name, ctr.Image)
	}

	for _, ctr := range spec.Containers {
		col.add(ctr.Name, ctr.Image)
	}

	return true
}

// podSpecOf returns the pod spec of a workload object,
// nil for non-workload kinds.
func podSpecOf(obj any) *corev1.PodSpec {
	switch o := obj.(type) {
	case *corev1.Pod:
		return &o.Spec
	case *appsv1.Deployment:
		return &o.Spec.Template.Spec
	case *appsv1.StatefulSet:
		return &o.Spec.Template.Spec
	case *appsv1.DaemonSet:
		return &o.Spec.Template.Spec
	case *appsv1.ReplicaSet:
		return &o.Spec.Template.Spec
	case *batchv1.Job:
		return &o.Spec.Template.Spec
	case *batchv1.CronJob:
		return &o.Spec.JobTemplate.Spec.Template.Spec
	default:
		return nil
	}
}
