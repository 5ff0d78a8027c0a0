package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/docforge/docforge/internal/client/orchestrator"
	"github.com/docforge/docforge/internal/client/quota"
)

func (a *App) addFiles(args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: add <path> [path...]")
		return
	}
	if err := a.orch.AddFiles(quota.FlowConvert, args...); err != nil {
		fmt.Println("error:", err)
		return
	}
	a.listFiles()
}

func (a *App) listFiles() {
	files := a.orch.Files()
	if len(files) == 0 {
		fmt.Println("No files staged")
		return
	}
	for i, f := range files {
		fmt.Printf("%d: %s (%d bytes)\n", i, f.Name, f.Size)
	}
}

func (a *App) removeFile(args []string) {
	if len(args) != 1 {
		fmt.Println("Usage: remove <n>")
		return
	}
	i, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	a.orch.RemoveFile(i)
	a.listFiles()
}

func (a *App) moveFile(args []string) {
	if len(args) != 2 {
		fmt.Println("Usage: move <from> <to>")
		return
	}
	from, err1 := strconv.Atoi(args[0])
	to, err2 := strconv.Atoi(args[1])
	if err1 != nil || err2 != nil {
		fmt.Println("Usage: move <from> <to>")
		return
	}
	a.orch.MoveFile(from, to)
	a.listFiles()
}

func (a *App) convert(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Println("Usage: convert <format> (e.g. convert pdf)")
		return
	}
	a.report(a.orch.ConvertBatch(ctx, args[0]))
}

func (a *App) merge(ctx context.Context, args []string) {
	output := ""
	if len(args) > 0 {
		output = args[0]
	}
	a.report(a.orch.Merge(ctx, output))
}

func (a *App) split(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Println("Usage: split <ranges> (e.g. split 1-3,5,7-9)")
		return
	}
	a.report(a.orch.Split(ctx, args[0]))
}

func (a *App) protect(ctx context.Context) {
	password, err := getPassword("Enter password", os.Stdout)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	confirm, err := getPassword("Confirm password", os.Stdout)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	a.report(a.orch.Protect(ctx, password, confirm))
}

func (a *App) unlock(ctx context.Context) {
	password, err := getPassword("Enter password", os.Stdout)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	a.report(a.orch.Unlock(ctx, password))
}

func (a *App) ocr(ctx context.Context, args []string) {
	language := "eng"
	if len(args) > 0 {
		language = args[0]
	}
	a.report(a.orch.OCR(ctx, language))
}

// report prints a settled outcome, including per-file failures on a partial
// batch.
func (a *App) report(out *orchestrator.Outcome, err error) {
	if out != nil {
		fmt.Println(out.Summary())
		for _, f := range out.Files {
			if f.Err != nil {
				fmt.Printf("  %s: %v\n", f.Name, f.Err)
			}
		}
	}
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	if out != nil && out.SuccessCount > 0 {
		fmt.Println("Saved to", a.config.DownloadDir)
	}
}
