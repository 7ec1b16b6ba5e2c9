package builder

import (
	"context"
	"fmt"

	"github.com/stampwise/stampwise/ir/semantic"
	"github.com/stampwise/stampwise/resources"
)

// NamedFont pre-registers a font resource under a fixed name on a wrapped
// page, the way PDFBuilder.RegisterFont does for a page built from scratch.
type NamedFont struct {
	Name string
	Font *semantic.Font
}

// WrapPage returns a PageBuilder that appends further drawing operations to
// an already-existing page (e.g. one produced by package semantic from a
// decoded document), rather than one freshly created via NewPage. Compositor
// uses this to overlay a stamp onto a page without rebuilding the document
// through the fluent builder from scratch.
//
// The wrapped page may already carry XObject resources under the default
// "Im<N>" names the builder itself hands out (scanned-PDF producers commonly
// name their first image "Im1"), so xobjectCount is seeded past whatever
// "Im<N>" names are already in use on the page, rather than restarting at 1
// and risking imageName colliding with — and then silently reusing instead
// of replacing — a pre-existing resource of the same name.
func WrapPage(page *semantic.Page, fonts ...NamedFont) PageBuilder {
	b := &builderImpl{defaultFont: freeFontName(page), xobjectCount: highestImageIndex(page)}
	for _, nf := range fonts {
		b.addFont(nf.Name, nf.Font)
	}
	return &pageBuilderImpl{parent: b, page: page}
}

// freeFontName picks a default caption-font resource name that does not
// already resolve on page, the same collision concern highestImageIndex
// guards against for images: a page whose own producer also named its
// first font "F1" would otherwise have a caption's Tf operator silently
// keep pointing at that pre-existing font instead of the new one.
func freeFontName(page *semantic.Page) string {
	resolver := resources.NewResolver()
	name := defaultFontResource
	for n := 0; ; n++ {
		if n > 0 {
			name = fmt.Sprintf("F%d", n+1)
		}
		if _, err := resolver.ResolveWithInheritance(context.Background(), resources.CategoryFont, name, page); err != nil {
			return name
		}
	}
}

func highestImageIndex(page *semantic.Page) int {
	if page.Resources == nil {
		return 0
	}
	max := 0
	for name := range page.Resources.XObjects {
		var n int
		if _, err := fmt.Sscanf(name, "Im%d", &n); err == nil && n > max {
			max = n
		}
	}
	return max
}
