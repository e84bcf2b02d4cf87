package tracing

import (
	"context"
	"testing"
	"time"
)

func TestBeginNestsUnderParent(t *testing.T) {
	ctx, root := Begin(context.Background(), "run")
	_, child := Begin(ctx, "collect_templates")
	child.Done()
	root.Done()

	if len(root.children) != 1 || root.children[0] != child {
		t.Fatalf("children = %v, want the started child", root.children)
	}
	if child.Elapsed <= 0 {
		t.Errorf("child elapsed = %v, want > 0", child.Elapsed)
	}
}

func TestBeginWithoutParentIsRoot(t *testing.T) {
	_, p := Begin(context.Background(), "run")
	if len(p.children) != 0 {
		t.Errorf("fresh phase has children: %v", p.children)
	}
}

func TestFromContext(t *testing.T) {
	if got := FromContext(context.Background()); got != nil {
		t.Errorf("FromContext on empty ctx = %v, want nil", got)
	}
	ctx, p := Begin(context.Background(), "run")
	if got := FromContext(ctx); got != p {
		t.Errorf("FromContext = %v, want the begun phase", got)
	}
}

func TestReportUsesLiveElapsedWhenNotDone(t *testing.T) {
	_, p := Begin(context.Background(), "run")
	p.Attr("articles", 3)
	time.Sleep(time.Millisecond)
	// Not Done yet; Report must not panic and must compute a live elapsed.
	p.Report()
	if p.Elapsed != 0 {
		t.Errorf("Report mutated Elapsed to %v", p.Elapsed)
	}
}
