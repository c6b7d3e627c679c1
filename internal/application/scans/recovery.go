package scans

import (
	"context"
	"fmt"

	domain "github.com/bryanwahyu/leakscan/internal/domain/scans"
)

// safeRun turns a runner panic into an error so it is reported like any other
// launch failure.
func safeRun(ctx context.Context, r domain.Runner, req domain.RunRequest) (res domain.RunResult, err error) {
	defer func() {
		if p := recover(); p != nil {
			res = domain.RunResult{}
			err = fmt.Errorf("runner panic: %v", p)
		}
	}()
	return r.Run(ctx, req)
}
