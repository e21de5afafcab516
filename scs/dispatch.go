/*
Copyright (C) 2024  Carl-Philip Hänsch

    This program is free software: you can redistribute it and/or modify
    it under the terms of the GNU General Public License as published by
    the Free Software Foundation, either version 3 of the License, or
    (at your option) any later version.

    This program is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU General Public License for more details.

    You should have received a copy of the GNU General Public License
    along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package scs

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/jtolds/gls"
	"golang.org/x/sync/errgroup"
)

var teamCtxMgr = gls.NewContextManager()

// runTeams fans fn out over team ids [0, n), one goroutine per team, the
// realization of the middle parallel-for level (rows within a chunk, fixed
// width C) required by the concurrency model. Panics are recovered the way
// a long-running worker-pool compute step would, turned into errors rather
// than taking the process down.
func runTeams(ctx context.Context, n int, fn func(ctx context.Context, teamID int) error) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		teamID := i
		g.Go(func() (err error) {
			teamCtxMgr.SetValues(gls.Values{"team": teamID}, func() {
				defer func() {
					if r := recover(); r != nil {
						err = fmt.Errorf("pscs: team %d panicked: %v\n%s", teamID, r, debug.Stack())
					}
				}()
				err = fn(ctx, teamID)
			})
			return err
		})
	}
	return g.Wait()
}

// currentTeam returns the team id of the calling goroutine, or -1 outside a
// runTeams dispatch. Intended for diagnostics only, never for correctness.
func currentTeam() int {
	if v, ok := teamCtxMgr.GetValue("team"); ok {
		return v.(int)
	}
	return -1
}
