package cli

import (
	"context"
	"fmt"
)

func (a *App) listHistory(ctx context.Context) {
	records, err := a.recorder.List(ctx, a.sess)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	if len(records) == 0 {
		fmt.Println("No history yet")
		return
	}
	for _, r := range records {
		out := "-"
		if r.OutputURL != nil {
			out = *r.OutputURL
		}
		fmt.Printf("%s  %s  %s -> %s  %s\n",
			r.ID, r.CreatedAt.Format("2006-01-02 15:04"), r.OriginalFilename, r.OutputFormat, out)
	}
}

func (a *App) deleteHistory(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Println("Usage: delhist <id>")
		return
	}
	if err := a.recorder.Delete(ctx, a.sess, args[0]); err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println("Deleted")
}
