// Package compiler orchestrates the compilation pipeline: validate the
// topology, commit a backend, allocate resources in declaration order,
// gate container images, render per-node configs and emit the deployment
// script. Node-scoped failures isolate the node and mark the run partial;
// structural errors and global conflicts fail the whole run.
package compiler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MELON-27AF/Project-5g/internal/alloc"
	"github.com/MELON-27AF/Project-5g/internal/capability"
	"github.com/MELON-27AF/Project-5g/internal/deploy"
	"github.com/MELON-27AF/Project-5g/internal/image"
	"github.com/MELON-27AF/Project-5g/internal/render"
	"github.com/MELON-27AF/Project-5g/internal/result"
	"github.com/MELON-27AF/Project-5g/internal/topology"
)

// Compiler turns a topology into deployment artifacts.
type Compiler struct {
	opts     Options
	resolver *capability.Resolver
}

// New returns a compiler with the given options.
func New(opts Options) *Compiler {
	opts.defaults()
	c := &Compiler{opts: opts}
	if opts.Backend == nil && opts.Prober != nil {
		c.resolver = capability.NewResolver(opts.Prober, opts.Logger)
	}
	return c
}

// Compile runs the full pipeline. The returned script is non-nil only
// when the run produced one; the caller decides whether to execute it.
func (c *Compiler) Compile(ctx context.Context, topo *topology.Topology) (*result.CompileResult, *deploy.Script) {
	out := &result.CompileResult{Success: true}
	log := c.opts.Logger

	for _, issue := range topology.Validate(topo) {
		if issue.Severity == result.SeverityError {
			out.Errors = append(out.Errors, issue)
		} else {
			out.Warnings = append(out.Warnings, issue)
		}
	}
	if len(out.Errors) > 0 {
		out.Success = false
		log.Error("topology rejected", "errors", len(out.Errors))
		return out, nil
	}

	caps := c.resolveBackend(ctx)
	out.Backend = string(caps.Variant)

	instances := topo.Instances()
	live := make(map[string]string, len(instances))

	// Handler validation. An instance failing validation is excluded;
	// the rest of the topology still compiles.
	valid := instances[:0:0]
	for _, inst := range instances {
		h, ok := c.opts.Registry.Get(inst.Function())
		if !ok {
			out.Errors = append(out.Errors, result.Issue{
				Kind: result.KindStructural, Severity: result.SeverityError,
				Entity:  inst.Name(),
				Message: fmt.Sprintf("no handler for function %q", inst.Function()),
			})
			out.Success = false
			continue
		}
		failed := false
		for _, issue := range h.Validate(inst) {
			if issue.Severity == result.SeverityError {
				out.Errors = append(out.Errors, issue)
				failed = true
				// Structural defects poison the whole document, the same
				// as topology-level ones.
				if issue.Kind == result.KindStructural {
					out.Success = false
				}
			} else {
				out.Warnings = append(out.Warnings, issue)
			}
		}
		if failed {
			out.Partial = true
			log.Warn("instance excluded by validation", "instance", inst.Name())
			continue
		}
		valid = append(valid, inst)
	}
	if !out.Success {
		return out, nil
	}

	// Allocation, strictly in declaration order so results are
	// reproducible. Global conflicts abort; local ones isolate.
	pool := alloc.NewPool()
	set := alloc.NewSet()
	allocated := valid[:0:0]
	for _, inst := range valid {
		if err := ctx.Err(); err != nil {
			return c.cancelled(out, err), nil
		}
		h, _ := c.opts.Registry.Get(inst.Function())
		rec, warns, err := h.Allocate(pool, inst)
		out.Warnings = append(out.Warnings, warns...)
		if err == nil {
			err = set.Add(rec)
		}
		if err != nil {
			var conflict *alloc.ConflictError
			if errors.As(err, &conflict) && conflict.Global {
				out.Success = false
				out.Errors = append(out.Errors, result.Issue{
					Kind: result.KindConflict, Severity: result.SeverityError,
					Entity: conflict.Entity, Message: conflict.Reason,
				})
				log.Error("global resource conflict", "entity", conflict.Entity, "reason", conflict.Reason)
				return out, nil
			}
			out.Errors = append(out.Errors, result.Issue{
				Kind: result.KindConflict, Severity: result.SeverityError,
				Entity: inst.Name(), Message: err.Error(),
			})
			out.Partial = true
			log.Warn("instance excluded by allocation", "instance", inst.Name(), "error", err)
			continue
		}
		allocated = append(allocated, inst)
	}

	out.Warnings = append(out.Warnings, alloc.Wire(set, topo)...)

	// Image gate. Container-requiring instances either bind an image or
	// are recorded skipped; they are never rescheduled as plain hosts.
	gate := image.New(c.opts.Inspector, c.opts.ImageTimeout, !c.opts.CheckImages, log)
	bindings := make(map[string]image.Binding, len(allocated))
	deployable := allocated[:0:0]
	for _, inst := range allocated {
		if err := ctx.Err(); err != nil {
			return c.cancelled(out, err), nil
		}
		if !inst.Containerized() {
			deployable = append(deployable, inst)
			continue
		}
		if !caps.Containers {
			out.Images = append(out.Images, result.ImageEntry{
				Node: inst.Node.Name, Instance: inst.Name(),
				Skipped: true, Reason: fmt.Sprintf("backend %s cannot run containers", caps.Variant),
			})
			out.Partial = true
			log.Warn("container instance skipped", "instance", inst.Name(), "backend", string(caps.Variant))
			continue
		}
		h, _ := c.opts.Registry.Get(inst.Function())
		binding, entry := gate.Bind(ctx, inst.Node.Name, inst.Name(), h.Images(inst))
		out.Images = append(out.Images, entry)
		if binding.Skipped {
			out.Errors = append(out.Errors, result.Issue{
				Kind: result.KindImage, Severity: result.SeverityError,
				Entity: inst.Name(), Message: binding.Reason,
				Suggestion: "pull one of the candidate images or set an explicit image property",
			})
			out.Partial = true
			continue
		}
		bindings[inst.Name()] = binding
		deployable = append(deployable, inst)
	}

	// Render. An unresolved config isolates its instance, and the failure
	// spreads to every instance whose allocation depends on it: a node
	// wired to a dead peer holds a claim it can never use.
	rendered := make(map[string][]render.Artifact, len(deployable))
	failed := make(map[string]bool)
	for _, inst := range deployable {
		h, _ := c.opts.Registry.Get(inst.Function())
		artifacts, err := h.Render(inst, set.Get(inst.Name()), set)
		if err != nil {
			failed[inst.Name()] = true
			out.Errors = append(out.Errors, result.Issue{
				Kind: result.KindRender, Severity: result.SeverityError,
				Entity: inst.Name(), Message: err.Error(),
				Suggestion: "supply the missing config values on the node or profile",
			})
			out.Partial = true
			log.Warn("instance excluded by render", "instance", inst.Name(), "error", err)
			continue
		}
		rendered[inst.Name()] = artifacts
	}
	for changed := true; changed; {
		changed = false
		for _, inst := range deployable {
			if failed[inst.Name()] {
				continue
			}
			for _, dep := range set.Get(inst.Name()).DependsOn {
				if !failed[dep] {
					continue
				}
				failed[inst.Name()] = true
				changed = true
				out.Errors = append(out.Errors, result.Issue{
					Kind: result.KindConflict, Severity: result.SeverityError,
					Entity:  inst.Name(),
					Message: fmt.Sprintf("depends on %s, which produced no artifacts", dep),
				})
				out.Partial = true
				log.Warn("instance excluded by failed dependency", "instance", inst.Name(), "dependency", dep)
				break
			}
		}
	}

	builder := deploy.NewBuilder()
	var steps []deploy.Step
	for _, inst := range deployable {
		if failed[inst.Name()] {
			continue
		}
		h, _ := c.opts.Registry.Get(inst.Function())
		for _, a := range rendered[inst.Name()] {
			builder.AddConfig(a.Name, a.Data)
		}
		if live[inst.Node.Name] == "" {
			live[inst.Node.Name] = inst.Name()
		}
		steps = append(steps, h.Steps(inst, set.Get(inst.Name()), bindings[inst.Name()].Image)...)
	}

	script := deploy.Generate(topo, caps, steps, live)
	scriptBytes, guards := deploy.Emit(script, log)
	out.Guards = guards
	builder.SetScript(scriptBytes)
	if err := builder.SetImages(out.Images); err != nil {
		out.Errors = append(out.Errors, result.Issue{
			Kind: result.KindRender, Severity: result.SeverityError,
			Message: "marshal image manifest: " + err.Error(),
		})
		out.Success = false
		return out, nil
	}
	builder.SetLog(generationLog(out))
	out.Artifacts = builder.Build()

	log.Info("compilation finished",
		"backend", string(caps.Variant),
		"steps", len(script.Steps),
		"partial", out.Partial)
	return out, script
}

// resolveBackend hands out the backend descriptor. The system path goes
// through the package-level commit so repeated compilations in one
// process never re-probe; an injected prober or explicit backend bypasses
// it and stays scoped to this compiler.
func (c *Compiler) resolveBackend(ctx context.Context) capability.Descriptor {
	if c.opts.Backend != nil {
		return *c.opts.Backend
	}
	if c.resolver != nil {
		return c.resolver.Resolve(ctx)
	}
	return capability.Commit(ctx, c.opts.Logger)
}

func (c *Compiler) cancelled(out *result.CompileResult, err error) *result.CompileResult {
	out.Success = false
	out.Errors = append(out.Errors, result.Issue{
		Kind: result.KindCapability, Severity: result.SeverityError,
		Message: "compilation cancelled: " + err.Error(),
	})
	return out
}

// generationLog serializes the run's decisions as JSON lines so the
// output directory carries its own audit trail.
func generationLog(out *result.CompileResult) []byte {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	write := func(kind string, v any) {
		enc.Encode(map[string]any{"event": kind, "detail": v})
	}
	write("backend", out.Backend)
	for _, w := range out.Warnings {
		write("warning", w)
	}
	for _, e := range out.Errors {
		write("error", e)
	}
	for _, img := range out.Images {
		write("image", img)
	}
	for _, g := range out.Guards {
		write("guard", g)
	}
	return buf.Bytes()
}
