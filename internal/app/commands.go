package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/vk/contentspec/internal/document"
	"github.com/vk/contentspec/internal/layer"
	"github.com/vk/contentspec/internal/spec"
)

// TemplateDir is the logical directory saved templates are written to.
const TemplateDir = "templates"

// TemplatePath returns the logical path of the saved template of typeID.
func TemplatePath(typeID string) string {
	return path.Join(TemplateDir, typeID+".template")
}

// Layers writes the layers from highest to lowest priority.
func (a *App) Layers(w io.Writer) error {
	save := a.stack.SaveLayer()
	for _, l := range a.stack.Layers() {
		var flags []string
		if l.ReadOnly {
			flags = append(flags, "read-only")
		}
		if l == save {
			flags = append(flags, "save")
		}
		line := fmt.Sprintf("%-12s %s", l.Name, l.Root)
		if len(flags) > 0 {
			line += " (" + strings.Join(flags, ", ") + ")"
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// Show writes the document at p followed by every document of its base
// chain, each under a header naming the layer that provides it.
func (a *App) Show(w io.Writer, p string) error {
	s, err := a.store.Fetch(p, false)
	if err != nil {
		return err
	}
	seen := make(map[string]bool)
	for s != nil && !seen[s.Path()] {
		seen[s.Path()] = true
		if err := a.writeDocument(w, s); err != nil {
			return err
		}
		if s, err = s.Base(); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) writeDocument(w io.Writer, s *spec.Spec) error {
	where := "unsaved"
	if f, err := a.stack.File(s.Path()); err == nil {
		where = f.Layer.Name
	}
	data, err := s.Body(false).Marshal()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "# %s (%s)\n%s", s.Path(), where, data)
	return err
}

// Check activates the type the document at p declares and runs its checks.
func (a *App) Check(w io.Writer, p string) error {
	s, err := a.store.Fetch(p, false)
	if err != nil {
		return err
	}
	v, err := a.store.Activate(s)
	if err != nil {
		return err
	}
	typeID, _ := a.registry.IDOf(v)
	if c, ok := v.(spec.Checker); ok {
		if err := c.Check(); err != nil {
			return err
		}
	} else {
		a.logger.Debug("Type has no checks.", "type", typeID)
	}
	_, err = fmt.Fprintf(w, "%s: ok (%s)\n", p, typeID)
	return err
}

// Mold writes the template of typeID to w, or saves it under TemplatePath
// in the save layer and reports where.
func (a *App) Mold(w io.Writer, typeID string, save bool) error {
	tmpl, err := a.store.Mold(typeID)
	if err != nil {
		return err
	}
	data, err := tmpl.Marshal()
	if err != nil {
		return err
	}
	if !save {
		_, err = w.Write(data)
		return err
	}
	f, err := a.stack.WriteFile(TemplatePath(typeID), "", data)
	if err != nil {
		return err
	}
	a.logger.Info("Saved template.", "type", typeID, "path", f.Abs)
	_, err = fmt.Fprintln(w, f.Abs)
	return err
}

// Lint checks the document at p against the template stored at the
// logical path template and writes one line per issue.
func (a *App) Lint(w io.Writer, template, p string) ([]spec.Issue, error) {
	data, _, err := a.stack.ReadFile(template)
	if err != nil {
		return nil, fmt.Errorf("failed to read template: %w", err)
	}
	tmpl, err := document.Parse(template, data)
	if err != nil {
		return nil, err
	}
	s, err := a.store.Fetch(p, false)
	if err != nil {
		return nil, err
	}
	issues := spec.Lint(tmpl, s)
	for _, issue := range issues {
		if _, err := fmt.Fprintln(w, issue); err != nil {
			return issues, err
		}
	}
	return issues, nil
}

// Set validates value against the access code kind, writes it at the dotted
// key path of the document at p and saves the document. The document is
// created when no layer has it yet.
func (a *App) Set(w io.Writer, p, key, value, kind string) error {
	rule, err := spec.CodecFromAccessCode(kind)
	if err != nil {
		return err
	}
	if !rule.Scalar() {
		return fmt.Errorf("cannot set %s values from the command line", rule.Code.Kind)
	}
	s, err := a.store.Fetch(p, true)
	if err != nil {
		return err
	}
	keys := strings.Split(key, ".")
	if slices.Contains(keys, "") {
		return fmt.Errorf("invalid key path %q", key)
	}
	target := s
	for _, k := range keys[:len(keys)-1] {
		target = target.SubSpec(k)
	}
	if err := rule.Set(target, keys[len(keys)-1], value); err != nil {
		return err
	}
	f, err := a.store.Save(s)
	if err != nil {
		return err
	}
	a.logger.Info("Saved document.", "path", p, "layer", f.Layer.Name)
	_, err = fmt.Fprintf(w, "%s: %s = %s\n", f.Abs, key, value)
	return err
}

// Watch re-checks every changed document until ctx is done. Failures are
// reported to w and do not stop the watch.
func (a *App) Watch(ctx context.Context, w io.Writer) error {
	pattern := "**/" + spec.DefaultDocumentPattern
	watcher, err := a.store.Watch(ctx, layer.DefaultWatcherConfig(), func(paths []string) {
		for _, p := range paths {
			if ok, _ := doublestar.Match(pattern, p); !ok {
				continue
			}
			if err := a.Check(w, p); err != nil {
				if errors.Is(err, layer.ErrNotFound) {
					fmt.Fprintf(w, "%s: removed\n", p)
					continue
				}
				fmt.Fprintf(w, "%s: %v\n", p, err)
			}
		}
	})
	if err != nil {
		return err
	}
	a.logger.Info("Watching layers for changes.", "layers", len(a.stack.Layers()))
	<-ctx.Done()
	return watcher.Stop()
}
