// Package deploy turns assembled manifest text into an apply invocation of
// the external CLI, gated on the required extension being installed.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"kubeapply/pkg/execs"
	"kubeapply/pkg/extension"
	"kubeapply/pkg/kube"
	"kubeapply/pkg/log"
)

var (
	// ErrExtensionRequired is returned when an apply is attempted before the
	// required extension is installed.
	ErrExtensionRequired = errors.New("required extension is not installed")

	// ErrManifestParse is returned when the manifest cannot be parsed for the
	// namespace override.
	ErrManifestParse = errors.New("parse manifest")
)

// Target identifies where and how manifests are applied.
type Target struct {
	// CLI is the executable used to apply manifests, e.g. "kubectl" or "oc".
	CLI string `json:"cli,omitempty" jsonschema:"title=CLI Executable"`
	// Context is the kubeconfig context to apply against.
	Context string `json:"context,omitempty" jsonschema:"title=Context"`
	// Namespace is the default target namespace stamped onto resources.
	Namespace string `json:"namespace,omitempty" jsonschema:"title=Namespace"`
}

// Deployer applies manifest text to a cluster through the bridge.
//
// It performs no retries and supports no cancellation of an in-flight apply;
// the external process runs to completion once started.
type Deployer struct {
	tracer    trace.Tracer
	bridge    *execs.Bridge
	ext       *extension.Manager
	listeners []chan<- Event
	target    Target
	mu        sync.Mutex
}

// DeployerOpt configures a [Deployer].
type DeployerOpt func(*Deployer)

// WithExtensionGate makes applies conditional on the manager reporting the
// extension as installed.
func WithExtensionGate(m *extension.Manager) DeployerOpt {
	return func(d *Deployer) {
		d.ext = m
	}
}

// NewDeployer creates a [Deployer] for the given target.
func NewDeployer(bridge *execs.Bridge, target Target, opts ...DeployerOpt) *Deployer {
	d := &Deployer{
		tracer: otel.Tracer("deploy"),
		bridge: bridge,
		target: target,
	}
	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Subscribe allows other components to listen for deployment events.
func (d *Deployer) Subscribe(ch chan<- Event) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.listeners = append(d.listeners, ch)
}

// Apply applies the manifest text to the target cluster. If namespace is
// non-empty, every resource is stamped with it first.
func (d *Deployer) Apply(ctx context.Context, manifest, namespace string) Output {
	return d.run(ctx, TypeApply, manifest, namespace)
}

// DryRun performs a server-side dry run of the apply.
func (d *Deployer) DryRun(ctx context.Context, manifest, namespace string) Output {
	return d.run(ctx, TypeDryRun, manifest, namespace)
}

func (d *Deployer) run(ctx context.Context, t Type, manifest, namespace string) Output {
	ctx, span := d.tracer.Start(ctx, "apply", trace.WithAttributes(
		attribute.String("cli", d.target.CLI),
		attribute.String("context", d.target.Context),
		attribute.String("namespace", namespace),
	))
	defer span.End()

	d.broadcast(EventStart(t))

	out := NewOutput(t)

	if d.ext != nil {
		if status := d.ext.Status(); status.Installed != extension.Installed {
			out.Error = fmt.Errorf("%w: status is %s", ErrExtensionRequired, status.Installed)
			d.broadcast(EventEnd(out))

			return out
		}
	}

	payload, err := d.prepare(manifest, namespace)
	if err != nil {
		out.Error = err
		d.broadcast(EventEnd(out))

		return out
	}

	res := d.bridge.ExecuteWithStdin(ctx, []byte(payload), d.target.CLI, d.args(t)...)
	out.Stdout = res.Stdout
	out.Stderr = res.Stderr

	log.WithContext(ctx).DebugContext(ctx, "apply completed",
		slog.String("cli", d.target.CLI),
		slog.Bool("dry_run", t == TypeDryRun),
		slog.Bool("ok", res.Stderr == ""),
	)

	d.broadcast(EventEnd(out))

	return out
}

// prepare stamps the target namespace onto every resource of the manifest.
// With no namespace the manifest is passed through untouched.
func (d *Deployer) prepare(manifest, namespace string) (string, error) {
	if namespace == "" {
		return manifest, nil
	}

	payload, err := kube.OverrideManifestNamespace(manifest, namespace)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrManifestParse, err)
	}

	return payload, nil
}

func (d *Deployer) args(t Type) []string {
	args := []string{"apply"}
	if d.target.Context != "" {
		args = append(args, "--context", d.target.Context)
	}
	if t == TypeDryRun {
		args = append(args, "--dry-run=server")
	}

	return append(args, "-f", "-")
}

func (d *Deployer) broadcast(evt Event) {
	d.mu.Lock()
	listeners := make([]chan<- Event, len(d.listeners))
	copy(listeners, d.listeners)
	d.mu.Unlock()

	for _, ch := range listeners {
		ch <- evt
	}
}
