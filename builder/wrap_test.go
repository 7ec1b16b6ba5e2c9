package builder

import (
	"testing"

	"github.com/stampwise/stampwise/ir/semantic"
)

func TestWrapPageAppendsToExistingContent(t *testing.T) {
	page := &semantic.Page{
		MediaBox: semantic.Rectangle{URX: 200, URY: 200},
		Contents: []semantic.ContentStream{{Operations: []semantic.Operation{{Operator: "q"}}}},
	}
	pb := WrapPage(page)
	pb.DrawText("hello", 10, 20, TextOptions{FontSize: 12}).Finish()

	if len(page.Contents[0].Operations) <= 1 {
		t.Fatalf("expected new operations appended after the existing one, got %+v", page.Contents[0].Operations)
	}
	if page.Contents[0].Operations[0].Operator != "q" {
		t.Fatalf("expected original operation preserved first, got %+v", page.Contents[0].Operations[0])
	}
}

func TestWrapPageAvoidsFontNameCollision(t *testing.T) {
	page := &semantic.Page{
		MediaBox:  semantic.Rectangle{URX: 200, URY: 200},
		Resources: &semantic.Resources{Fonts: map[string]*semantic.Font{"F1": {BaseFont: "Arial"}}},
	}
	pb := WrapPage(page)
	pb.DrawText("hello", 10, 20, TextOptions{FontSize: 12}).Finish()

	if page.Resources.Fonts["F1"].BaseFont != "Arial" {
		t.Fatalf("expected the pre-existing F1 font to survive untouched, got %+v", page.Resources.Fonts["F1"])
	}
	if len(page.Resources.Fonts) != 2 {
		t.Fatalf("expected the new caption font to be registered under a distinct name, got %+v", page.Resources.Fonts)
	}
}

func TestWrapPageAvoidsImageNameCollision(t *testing.T) {
	page := &semantic.Page{
		MediaBox:  semantic.Rectangle{URX: 200, URY: 200},
		Resources: &semantic.Resources{XObjects: map[string]semantic.XObject{"Im1": {Subtype: "Image"}}},
	}
	pb := WrapPage(page)
	img := &semantic.Image{Width: 10, Height: 10}
	pb.DrawImage(img, 0, 0, 10, 10, ImageOptions{}).Finish()

	if _, ok := page.Resources.XObjects["Im1"]; !ok {
		t.Fatalf("expected the pre-existing Im1 resource to survive untouched")
	}
	if len(page.Resources.XObjects) != 2 {
		t.Fatalf("expected the new image to be registered under a distinct name, got %+v", page.Resources.XObjects)
	}
}
