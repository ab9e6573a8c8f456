package kubefwd

import (
	"context"
	"testing"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"
)

func pod(name string, phase corev1.PodPhase, podLabels map[string]string) *corev1.Pod {
	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: "search", Labels: podLabels},
		Status:     corev1.PodStatus{Phase: phase},
	}
}

func TestResolvePodPrefersExplicitName(t *testing.T) {
	client := fake.NewSimpleClientset()
	name, err := resolvePod(context.Background(), client, Target{Namespace: "search", Pod: "es-0", RemotePort: 9200})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if name != "es-0" {
		t.Fatalf("expected explicit pod, got %q", name)
	}
}

func TestResolvePodViaServiceSelector(t *testing.T) {
	sel := map[string]string{"app": "es"}
	client := fake.NewSimpleClientset(
		&corev1.Service{
			ObjectMeta: metav1.ObjectMeta{Name: "es", Namespace: "search"},
			Spec:       corev1.ServiceSpec{Selector: sel},
		},
		pod("es-pending", corev1.PodPending, sel),
		pod("es-1", corev1.PodRunning, sel),
	)

	name, err := resolvePod(context.Background(), client, Target{Namespace: "search", Service: "es", RemotePort: 9200})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if name != "es-1" {
		t.Fatalf("expected running pod es-1, got %q", name)
	}
}

func TestResolvePodNoRunningPods(t *testing.T) {
	sel := map[string]string{"app": "es"}
	client := fake.NewSimpleClientset(
		&corev1.Service{
			ObjectMeta: metav1.ObjectMeta{Name: "es", Namespace: "search"},
			Spec:       corev1.ServiceSpec{Selector: sel},
		},
		pod("es-crash", corev1.PodFailed, sel),
	)

	if _, err := resolvePod(context.Background(), client, Target{Namespace: "search", Service: "es", RemotePort: 9200}); err == nil {
		t.Fatalf("expected error when no pod is running")
	}
}

func TestTargetValidate(t *testing.T) {
	cases := []struct {
		name    string
		target  Target
		wantErr bool
	}{
		{"pod ok", Target{Pod: "es-0", RemotePort: 9200}, false},
		{"service ok", Target{Service: "es", RemotePort: 9200}, false},
		{"missing name", Target{RemotePort: 9200}, true},
		{"missing port", Target{Pod: "es-0"}, true},
		{"port out of range", Target{Pod: "es-0", RemotePort: 70000}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.target.Validate()
			if tc.wantErr && err == nil {
				t.Fatalf("expected error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
