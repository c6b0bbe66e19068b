package todoclient

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"voicetodo/internal/domain"
)

const (
	defaultStatePath = "todoctl-state"
	defaultServerURL = "http://localhost:8090"
)

type UsageError struct {
	Program string
}

func (u UsageError) Error() string {
	if u.Program == "" {
		u.Program = "todoctl"
	}
	return fmt.Sprintf("Usage: %s <command> [options]", u.Program)
}

func (UsageError) UsageLines() []string {
	return []string{
		"Commands:",
		"  add       Add a todo",
		"  list      List todos (use -search to filter)",
		"  search    List todos matching a substring",
		"  done      Toggle a todo's completed flag",
		"  rm        Delete a todo",
		"  clear     Delete all completed todos",
		"  load      Pull server state and show what was loaded",
		"  sync      Push local state to the server",
		"  usage     Show server-side data usage",
		"  export    Print the server-side record as JSON",
		"  reset     Delete all data and rotate the device identity",
		"  rotate    Recompute and persist a fresh device id",
		"  id        Print the device id",
	}
}

// RunCLI dispatches a todoctl invocation. Each command hydrates the store
// from the server first, applies its mutation and relies on auto-sync to
// push the result back.
func RunCLI(prog string, args []string, stderr io.Writer) error {
	if len(args) < 1 {
		return UsageError{Program: prog}
	}
	cmd := args[0]
	rest := args[1:]
	var err error
	switch cmd {
	case "add":
		err = runAdd(rest)
	case "list":
		err = runList(rest)
	case "search":
		err = runSearch(rest)
	case "load":
		err = runLoad(rest)
	case "done":
		err = runDone(rest)
	case "rm":
		err = runRemove(rest)
	case "clear":
		err = runClear(rest)
	case "sync":
		err = runSync(rest)
	case "usage":
		err = runUsage(rest)
	case "export":
		err = runExport(rest)
	case "reset":
		err = runReset(rest)
	case "rotate":
		err = runRotate(rest)
	case "id":
		err = runID(rest)
	default:
		return UsageError{Program: prog}
	}
	if err != nil {
		if stderr == nil {
			stderr = os.Stderr
		}
		fmt.Fprintf(stderr, "error: %v\n", err)
	}
	return err
}

func commonFlags(fs *flag.FlagSet) (statePath, serverURL *string) {
	fs.SetOutput(io.Discard)
	statePath = fs.String("state", getenv("TODOCTL_STATE_PATH", defaultStatePath), "device identity file path")
	serverURL = fs.String("server", getenv("TODOCTL_SERVER_URL", defaultServerURL), "server base URL")
	return statePath, serverURL
}

func openStore(ctx context.Context, statePath, serverURL string) (*Store, error) {
	deviceID, err := GetOrCreateDeviceID(statePath)
	if err != nil {
		return nil, err
	}
	store := NewStore(StoreConfig{
		DeviceID:  deviceID,
		StatePath: statePath,
		Client:    NewClient(serverURL, 0),
	})
	if err := store.LoadTodos(ctx); err != nil {
		return nil, fmt.Errorf("load todos: %w", err)
	}
	return store, nil
}

func runAdd(args []string) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	statePath, serverURL := commonFlags(fs)
	text := fs.String("text", "", "todo text")
	via := fs.String("via", "text", "creation channel (text, voice, image, location)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *text == "" && fs.NArg() > 0 {
		*text = strings.Join(fs.Args(), " ")
	}
	if *text == "" {
		return fmt.Errorf("todo text is required")
	}

	ctx := context.Background()
	store, err := openStore(ctx, *statePath, *serverURL)
	if err != nil {
		return err
	}
	todo := store.AddTodo(ctx, TodoInput{Text: *text, CreatedVia: domain.CreationChannel(*via)})
	fmt.Printf("added %s\n", todo.ID)
	return nil
}

func runList(args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	statePath, serverURL := commonFlags(fs)
	search := fs.String("search", "", "case-insensitive substring filter")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	store, err := openStore(ctx, *statePath, *serverURL)
	if err != nil {
		return err
	}
	todos := store.SearchTodos(*search)
	if len(todos) == 0 {
		fmt.Println("no todos")
		return nil
	}
	for _, todo := range todos {
		mark := " "
		if todo.Completed {
			mark = "x"
		}
		fmt.Printf("[%s] %s  %s  (%s, %s)\n", mark, todo.ID, todo.Text, todo.CreatedVia, todo.CreatedAt.Local().Format(time.DateTime))
	}
	total, completed, active := store.Counts()
	fmt.Printf("%d total, %d active, %d completed\n", total, active, completed)
	return nil
}

func runSearch(args []string) error {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	statePath, serverURL := commonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("search term is required")
	}
	return runList([]string{"-state", *statePath, "-server", *serverURL, "-search", strings.Join(fs.Args(), " ")})
}

func runLoad(args []string) error {
	fs := flag.NewFlagSet("load", flag.ContinueOnError)
	statePath, serverURL := commonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := openStore(context.Background(), *statePath, *serverURL)
	if err != nil {
		return err
	}
	total, completed, active := store.Counts()
	fmt.Printf("loaded %d todos (%d active, %d completed)\n", total, active, completed)
	return nil
}

func runDone(args []string) error {
	fs := flag.NewFlagSet("done", flag.ContinueOnError)
	statePath, serverURL := commonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("todo id is required")
	}

	ctx := context.Background()
	store, err := openStore(ctx, *statePath, *serverURL)
	if err != nil {
		return err
	}
	return store.ToggleTodo(ctx, fs.Arg(0))
}

func runRemove(args []string) error {
	fs := flag.NewFlagSet("rm", flag.ContinueOnError)
	statePath, serverURL := commonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("todo id is required")
	}

	ctx := context.Background()
	store, err := openStore(ctx, *statePath, *serverURL)
	if err != nil {
		return err
	}
	return store.DeleteTodo(ctx, fs.Arg(0))
}

func runClear(args []string) error {
	fs := flag.NewFlagSet("clear", flag.ContinueOnError)
	statePath, serverURL := commonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	store, err := openStore(ctx, *statePath, *serverURL)
	if err != nil {
		return err
	}
	return store.ClearCompleted(ctx)
}

func runSync(args []string) error {
	fs := flag.NewFlagSet("sync", flag.ContinueOnError)
	statePath, serverURL := commonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	store, err := openStore(ctx, *statePath, *serverURL)
	if err != nil {
		return err
	}
	if err := store.SyncTodos(ctx); err != nil {
		return err
	}
	fmt.Println("synced")
	return nil
}

func runUsage(args []string) error {
	fs := flag.NewFlagSet("usage", flag.ContinueOnError)
	statePath, serverURL := commonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	deviceID, err := GetOrCreateDeviceID(*statePath)
	if err != nil {
		return err
	}
	usage, err := NewClient(*serverURL, 0).GetDataUsage(context.Background(), deviceID)
	if err != nil {
		return err
	}
	fmt.Printf("todos: %d\nimages: %d\naudio files: %d\nstorage used: %s\nlast sync: %s\n",
		usage.TotalTodos, usage.TotalImages, usage.TotalAudioFiles, usage.StorageUsed,
		usage.LastSync.Local().Format(time.DateTime))
	return nil
}

func runExport(args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	statePath, serverURL := commonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	deviceID, err := GetOrCreateDeviceID(*statePath)
	if err != nil {
		return err
	}
	doc, err := NewClient(*serverURL, 0).ExportDeviceData(context.Background(), deviceID)
	if err != nil {
		return err
	}
	fmt.Println(string(doc))
	return nil
}

func runReset(args []string) error {
	fs := flag.NewFlagSet("reset", flag.ContinueOnError)
	statePath, serverURL := commonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	store, err := openStore(ctx, *statePath, *serverURL)
	if err != nil {
		return err
	}
	if err := store.ResetAllData(ctx); err != nil {
		return err
	}
	fmt.Println("all data deleted")
	return nil
}

func runRotate(args []string) error {
	fs := flag.NewFlagSet("rotate", flag.ContinueOnError)
	statePath, _ := commonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	id := GenerateDeviceID()
	if err := StoreDeviceID(*statePath, id); err != nil {
		return err
	}
	fmt.Printf("device id rotated: %s\n", shortID(id))
	return nil
}

func runID(args []string) error {
	fs := flag.NewFlagSet("id", flag.ContinueOnError)
	statePath, _ := commonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	id, err := GetOrCreateDeviceID(*statePath)
	if err != nil {
		return err
	}
	fmt.Println(id)
	return nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
