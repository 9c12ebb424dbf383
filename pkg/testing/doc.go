// Package testing provides a component testing harness for fiber.
//
// # Quick Start
//
// Create a tester, render an element, and make assertions:
//
//	func TestCounter(t *testing.T) {
//	    tester := fibertest.NewTesterWithT(t)
//	    tester.Render(core.C(Counter, nil))
//
//	    // Simulate events; each helper pumps until idle
//	    tester.Click(fibertest.ByTag("button"))
//
//	    if got := tester.Find(fibertest.ByClass("value")).Text(); got != "1" {
//	        t.Errorf("expected 1, got %q", got)
//	    }
//	}
//
// The tester drives a manual scheduler, so Step can run a single slice
// of a pass and observe the tree before it commits.
//
// # Snapshot Testing
//
// Capture and compare output snapshots:
//
//	snapshot := tester.CaptureSnapshot()
//	snapshot.MatchesFile(t, "testdata/counter.snapshot.json")
//
// Update snapshots with:
//
//	FIBER_UPDATE_SNAPSHOTS=1 go test ./...
//
// # Import Alias
//
// Since this package has the same name as the standard library testing
// package, import it with an alias:
//
//	import fibertest "github.com/go-drift/fiber/pkg/testing"
package testing
