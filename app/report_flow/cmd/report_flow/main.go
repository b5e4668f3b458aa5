package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/joho/godotenv"

	"github.com/iWorld-y/report_flow/app/report_flow/pkg/analysis"
	"github.com/iWorld-y/report_flow/app/report_flow/pkg/config"
	"github.com/iWorld-y/report_flow/app/report_flow/pkg/kv/factory"
	"github.com/iWorld-y/report_flow/app/report_flow/pkg/logger"
	"github.com/iWorld-y/report_flow/app/report_flow/pkg/model"
	"github.com/iWorld-y/report_flow/app/report_flow/pkg/store"
	"github.com/iWorld-y/report_flow/app/report_flow/pkg/view"
	"github.com/iWorld-y/report_flow/app/report_flow/pkg/workspace"
)

const usageText = `usage: report_flow [-conf path] [-env path] <command> [flags]

commands:
  extract  -meta <text> -text-file <path|-> -file <path>... -url <url>...
  list
  summary  [-id <report id>]
  track    [-id <target report id>]
  kpi
  chat     [-q <question>]   (reads questions from stdin when -q is empty)
  delete   -id <report id> [-confirm]
`

func main() {
	confPath := flag.String("conf", "app/report_flow/configs/config.yaml", "config path, eg: -conf config.yaml")
	envPath := flag.String("env", ".env", "dotenv file providing "+config.EnvAPIKey)
	flag.Usage = func() { fmt.Fprint(os.Stderr, usageText) }
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}
	cmd, args := flag.Arg(0), flag.Args()[1:]

	// 1. 加载配置
	if err := godotenv.Load(*envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("无法加载 %s: %v", *envPath, err)
	}
	cfg, err := config.LoadConfig(*confPath)
	if err != nil {
		log.Fatalf("无法加载配置文件: %v", err)
	}
	cfg.ApplyEnv()

	// 2. 初始化日志
	if err = logger.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
		log.Fatalf("无法初始化日志: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// 3. 初始化存储
	backend, err := factory.NewBackend(ctx, cfg.Store)
	if err != nil {
		logger.Log.Fatalf("存储初始化失败: %v", err)
	}
	st := store.New(backend, cfg.Store.Key)
	defer st.Close()
	if _, err := st.Load(ctx); err != nil {
		var loadErr *store.LoadError
		if !errors.As(err, &loadErr) {
			logger.Log.Fatalf("存储读取失败: %v", err)
		}
		logger.Log.Warnf("已保存的报告无法解析，以空集合继续: %v", err)
	}

	// 4. 初始化 LLM，仅在需要调用模型的命令中
	var analyzer view.Analyzer
	if cmd != "list" && cmd != "delete" {
		if err := cfg.Validate(); err != nil {
			logger.Log.Fatalf("配置错误: %v", err)
		}
		client, err := analysis.NewClientFromConfig(ctx, cfg)
		if err != nil {
			logger.Log.Fatalf("%v", err)
		}
		analyzer = client
	}
	ws := workspace.New(analyzer, st, cfg)

	if err := run(ctx, ws, cmd, args, os.Stdin, os.Stdout); err != nil {
		var fe flagError
		if errors.As(err, &fe) {
			fmt.Fprintln(os.Stderr, err)
			flag.Usage()
			os.Exit(2)
		}
		logger.Log.Errorf("%s 执行失败: %v", cmd, err)
		os.Exit(1)
	}
}

type flagError struct{ error }

func run(ctx context.Context, ws *workspace.Workspace, cmd string, args []string, in io.Reader, out io.Writer) error {
	switch cmd {
	case "extract":
		return runExtract(ctx, ws, args, in, out)
	case "list":
		return runList(ws, out)
	case "summary":
		return runSummary(ctx, ws, args, out)
	case "track":
		return runTrack(ctx, ws, args, out)
	case "kpi":
		return runKPI(ctx, ws, out)
	case "chat":
		return runChat(ctx, ws, args, in, out)
	case "delete":
		return runDelete(ctx, ws, args, out)
	default:
		return flagError{fmt.Errorf("unknown command %q", cmd)}
	}
}

type listFlag []string

func (l *listFlag) String() string     { return strings.Join(*l, ",") }
func (l *listFlag) Set(v string) error { *l = append(*l, v); return nil }

func parseFlags(fs *flag.FlagSet, args []string) error {
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		return flagError{err}
	}
	return nil
}

func runExtract(ctx context.Context, ws *workspace.Workspace, args []string, in io.Reader, out io.Writer) error {
	fs := flag.NewFlagSet("extract", flag.ContinueOnError)
	meta := fs.String("meta", view.DefaultMetaTemplate, "report meta block")
	textFile := fs.String("text-file", "", "slide text file, - for stdin")
	var files, urls listFlag
	fs.Var(&files, "file", "attachment (pdf/image), repeatable")
	fs.Var(&urls, "url", "document url, repeatable")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	e := ws.Extraction
	if err := e.SetMeta(*meta); err != nil {
		return err
	}
	if *textFile != "" {
		text, err := readText(*textFile, in)
		if err != nil {
			return err
		}
		if err := e.SetText(text); err != nil {
			return err
		}
	}
	for _, path := range files {
		att, err := readAttachment(path)
		if err != nil {
			return err
		}
		if err := e.AddFile(att); err != nil {
			return err
		}
	}
	if err := e.SetURLs(urls); err != nil {
		return err
	}

	report, err := ws.Extract(ctx)
	if err != nil {
		return err
	}
	return printJSON(out, report)
}

func readText(path string, in io.Reader) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(in)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read text: %w", err)
	}
	return string(data), nil
}

func readAttachment(path string) (analysis.Attachment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return analysis.Attachment{}, fmt.Errorf("read attachment: %w", err)
	}
	mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return analysis.Attachment{Name: filepath.Base(path), MIMEType: mimeType, Data: data}, nil
}

func runList(ws *workspace.Workspace, out io.Writer) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tWEEK\tORGANIZATION\tSTATUS\tITEMS\tGREEN\tYELLOW\tRED")
	for _, e := range ws.History.Entries() {
		r := e.Report
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\n",
			r.ID, r.ReportMeta.Week, r.ReportMeta.Organization, r.Summary.OverallStatus, len(r.Details),
			e.StatusCounts[model.StatusGreen], e.StatusCounts[model.StatusYellow], e.StatusCounts[model.StatusRed])
	}
	return tw.Flush()
}

func runSummary(ctx context.Context, ws *workspace.Workspace, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("summary", flag.ContinueOnError)
	id := fs.String("id", "", "report id, defaults to the newest report")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *id == "" {
		reports := ws.Store.List()
		if len(reports) == 0 {
			return store.ErrNotFound
		}
		*id = reports[0].ID
	}
	if err := ws.SelectReport(*id); err != nil {
		return err
	}
	report, text, err := ws.SummarizeSelected(ctx, true)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "# %s\n%v\n\n%s\n", report.Label(), ws.Summary.StatusCounts(), text)
	return nil
}

func runTrack(ctx context.Context, ws *workspace.Workspace, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("track", flag.ContinueOnError)
	id := fs.String("id", "", "target report id, defaults to the newest report")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	text, err := ws.Tracking.Run(ctx, *id)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, text)
	return nil
}

func runKPI(ctx context.Context, ws *workspace.Workspace, out io.Writer) error {
	series, err := ws.KPI.Activate(ctx)
	if err != nil {
		return err
	}
	if len(series) == 0 {
		fmt.Fprintln(out, "KPI 데이터가 없습니다.")
		return nil
	}
	return printJSON(out, series)
}

func runChat(ctx context.Context, ws *workspace.Workspace, args []string, in io.Reader, out io.Writer) error {
	fs := flag.NewFlagSet("chat", flag.ContinueOnError)
	q := fs.String("q", "", "question")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *q != "" {
		reply, err := ws.Chat.Send(ctx, *q)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, reply.Content)
		return nil
	}

	fmt.Fprintln(out, view.ChatGreeting)
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		reply, err := ws.Chat.Send(ctx, line)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, reply.Content)
	}
}

func runDelete(ctx context.Context, ws *workspace.Workspace, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	id := fs.String("id", "", "report id")
	confirm := fs.Bool("confirm", false, "confirm deletion when history.confirm_delete is on")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *id == "" {
		return flagError{errors.New("delete: -id is required")}
	}
	if err := ws.DeleteReport(ctx, *id, *confirm); err != nil {
		if errors.Is(err, view.ErrConfirmationRequired) {
			return fmt.Errorf("%w: rerun with -confirm", err)
		}
		return err
	}
	fmt.Fprintf(out, "deleted %s\n", *id)
	return nil
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
