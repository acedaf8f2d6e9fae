package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/ncosentino/needlr/internal/classifier"
	"github.com/ncosentino/needlr/internal/models"
)

// WriteSummary renders a plain-text overview of a run: registration counts
// per lifetime, wrapping artifacts, plugins and rejections.
func WriteSummary(w io.Writer, manifest *models.Manifest, res *classifier.Result) error {
	counts := make(map[models.Lifetime]int)
	for _, reg := range manifest.Registrations {
		counts[reg.Lifetime]++
	}

	if _, err := fmt.Fprintf(w, "module %s\n", manifest.Module); err != nil {
		return err
	}
	if hash := manifest.UniverseHash; len(hash) >= 12 {
		fmt.Fprintf(w, "universe %s\n", hash[:12])
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "registrations: %d\n", len(manifest.Registrations))
	for _, lt := range []models.Lifetime{models.LifetimeSingleton, models.LifetimeScoped, models.LifetimeTransient} {
		fmt.Fprintf(w, "  %-10s %d\n", lt.String(), counts[lt])
	}

	if len(manifest.Decorators) > 0 {
		fmt.Fprintf(w, "decorators: %d\n", len(manifest.Decorators))
		for _, d := range manifest.Decorators {
			fmt.Fprintf(w, "  %s wraps %s (order %d)\n", d.Decorator, d.Interface, d.Order)
		}
	}
	intercepted := 0
	for _, app := range manifest.Interceptors {
		if len(app.Interceptors) > 0 {
			intercepted++
		}
	}
	if intercepted > 0 {
		fmt.Fprintf(w, "intercepted methods: %d\n", intercepted)
	}
	if len(manifest.Plugins) > 0 {
		fmt.Fprintf(w, "plugin-discoverable: %d\n", len(manifest.Plugins))
	}

	if res != nil && len(res.Rejections) > 0 {
		rejections := make([]classifier.Rejection, len(res.Rejections))
		copy(rejections, res.Rejections)
		sort.Slice(rejections, func(i, j int) bool {
			return rejections[i].Type < rejections[j].Type
		})
		fmt.Fprintf(w, "\nnot injectable: %d\n", len(rejections))
		for _, rej := range rejections {
			fmt.Fprintf(w, "  %s: %s\n", rej.Type, rej.Reason.String())
		}
	}

	return nil
}
