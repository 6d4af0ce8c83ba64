package crawler

import "testing"

func TestFindNextControl(t *testing.T) {
	t.Parallel()

	t.Run("finds enabled link in pagination nav", func(t *testing.T) {
		t.Parallel()

		ctrl, err := FindNextControl(renderPage("", nil, "enabled"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ctrl == nil {
			t.Fatal("expected a next control")
		}
		if !ctrl.Enabled {
			t.Error("expected control to be enabled")
		}
		if ctrl.XPath != NextPageXPath {
			t.Errorf("expected primary XPath, got %q", ctrl.XPath)
		}
	})

	t.Run("no link returns nil", func(t *testing.T) {
		t.Parallel()

		ctrl, err := FindNextControl(renderPage("", nil, ""))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ctrl != nil {
			t.Errorf("expected nil control, got %+v", ctrl)
		}
	})

	t.Run("falls back to any Next link", func(t *testing.T) {
		t.Parallel()

		ctrl, err := FindNextControl(`<div class="pager"><a href="?page=2">Next</a></div>`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ctrl == nil || ctrl.XPath != FallbackNextPageXPath {
			t.Fatalf("expected fallback control, got %+v", ctrl)
		}
		if ctrl.Href != "?page=2" {
			t.Errorf("expected href ?page=2, got %q", ctrl.Href)
		}
	})
}

func TestHasNextControl(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    bool
	}{
		{
			name:    "enabled",
			content: renderPage("", nil, "enabled"),
			want:    true,
		},
		{
			name:    "disabled list item",
			content: renderPage("", nil, "disabled"),
			want:    false,
		},
		{
			name:    "disabled attribute",
			content: `<nav id="pagination"><a disabled>Next</a></nav>`,
			want:    false,
		},
		{
			name:    "aria-disabled",
			content: `<nav id="pagination"><a aria-disabled="true">Next</a></nav>`,
			want:    false,
		},
		{
			name:    "display none",
			content: `<nav id="pagination"><a style="display: none">Next</a></nav>`,
			want:    false,
		},
		{
			name:    "visibility hidden",
			content: `<nav id="pagination"><a style="visibility:hidden">Next</a></nav>`,
			want:    false,
		},
		{
			name:    "hidden attribute",
			content: `<nav id="pagination"><a hidden>Next</a></nav>`,
			want:    false,
		},
		{
			name:    "absent",
			content: `<nav id="pagination"><a>Previous</a></nav>`,
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := HasNextControl(tt.content)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestHiddenStyle(t *testing.T) {
	t.Parallel()

	if !HiddenStyle("color: red; DISPLAY : none") {
		t.Error("expected display none to be hidden")
	}
	if HiddenStyle("display: block") {
		t.Error("expected display block to be visible")
	}
}
