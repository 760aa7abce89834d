package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"recipehub/pkg/logger"
	"recipehub/pkg/models"
)

const defaultBaseURL = "http://localhost:8080"

var log = logger.Must(false)

type dietResult struct {
	Name  string `json:"name"`
	OK    bool   `json:"ok"`
	Code  string `json:"code,omitempty"`
	Error string `json:"error,omitempty"`
}

type createResponse struct {
	Recipe models.Recipe `json:"recipe"`
	Diets  []dietResult  `json:"diets"`
}

func main() {
	defer func() { _ = log.Sync() }()

	global := flag.NewFlagSet("recipehub", flag.ExitOnError)
	baseURL := global.String("api", defaultBaseURL, "API base URL")
	_ = global.Parse(os.Args[1:])

	args := global.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()
	cmd := args[0]
	sub := ""
	if len(args) > 1 {
		sub = args[1]
	}
	rest := []string{}
	if len(args) > 2 {
		rest = args[2:]
	}

	client := &http.Client{Timeout: 15 * time.Second}

	switch cmd {
	case "recipes":
		handleRecipes(ctx, client, *baseURL, sub, rest)
	case "types":
		var labels []string
		if err := doJSON(ctx, client, http.MethodGet, *baseURL+"/types", nil, &labels); err != nil {
			fatal("types failed", err)
		}
		fmt.Println(strings.Join(labels, "\n"))
	case "diets":
		var rows []models.DietLabel
		if err := doJSON(ctx, client, http.MethodGet, *baseURL+"/diets", nil, &rows); err != nil {
			fatal("diets failed", err)
		}
		printJSON(rows)
	case "watch":
		handleWatch(*baseURL, sub, rest)
	default:
		printUsage()
		os.Exit(1)
	}
}

func handleRecipes(ctx context.Context, client *http.Client, baseURL, sub string, args []string) {
	switch sub {
	case "list":
		var out []models.Recipe
		if err := doJSON(ctx, client, http.MethodGet, baseURL+"/recipes", nil, &out); err != nil {
			fatal("list failed", err)
		}
		for _, r := range out {
			fmt.Printf("%-8d %-8s %s\n", r.ID, r.Source, r.Name)
		}
	case "search":
		fs := flag.NewFlagSet("recipes search", flag.ExitOnError)
		query := fs.String("q", "", "name fragment")
		_ = fs.Parse(args)
		if *query == "" {
			fatal("query is required", nil)
		}

		u, err := url.Parse(baseURL + "/recipes")
		if err != nil {
			fatal("invalid base url", err)
		}
		qv := u.Query()
		qv.Set("name", *query)
		u.RawQuery = qv.Encode()

		var out []models.Recipe
		if err := doJSON(ctx, client, http.MethodGet, u.String(), nil, &out); err != nil {
			fatal("search failed", err)
		}
		printJSON(out)
	case "get":
		fs := flag.NewFlagSet("recipes get", flag.ExitOnError)
		id := fs.Int64("id", 0, "recipe id")
		_ = fs.Parse(args)

		var out []models.Recipe
		endpoint := baseURL + "/recipes/" + strconv.FormatInt(*id, 10)
		if err := doJSON(ctx, client, http.MethodGet, endpoint, nil, &out); err != nil {
			fatal("get failed", err)
		}
		printJSON(out)
	case "create":
		fs := flag.NewFlagSet("recipes create", flag.ExitOnError)
		name := fs.String("name", "", "recipe name")
		resume := fs.String("resume", "", "short summary")
		score := fs.Int("score", 0, "score")
		health := fs.Int("health", 0, "health score")
		steps := fs.String("steps", "", "steps separated by |")
		img := fs.String("img", "", "image URL")
		diets := fs.String("diets", "", "comma-separated diet labels")
		_ = fs.Parse(args)
		if *name == "" {
			fatal("name is required", nil)
		}

		stepGroups := [][]string{}
		if parts := splitNonEmpty(*steps, "|"); len(parts) > 0 {
			stepGroups = append(stepGroups, parts)
		}

		payload := map[string]any{
			"name":         *name,
			"resume":       *resume,
			"score":        *score,
			"health_score": *health,
			"steps":        stepGroups,
			"img":          *img,
			"diets":        splitNonEmpty(*diets, ","),
		}
		var out createResponse
		if err := doJSON(ctx, client, http.MethodPost, baseURL+"/recipes", payload, &out); err != nil {
			fatal("create failed", err)
		}
		fmt.Printf("created recipe %d (%s)\n", out.Recipe.ID, out.Recipe.Name)
		for _, d := range out.Diets {
			if d.OK {
				fmt.Printf("  ok    %s\n", d.Name)
				continue
			}
			fmt.Printf("  fail  %s: %s\n", d.Name, d.Error)
		}
	default:
		fatal("usage: recipehub recipes <list|search|get|create>", nil)
	}
}

func handleWatch(baseURL, sub string, args []string) {
	switch sub {
	case "tcp":
		fs := flag.NewFlagSet("watch tcp", flag.ExitOnError)
		addr := fs.String("addr", "127.0.0.1:7070", "TCP sync server address")
		_ = fs.Parse(args)
		for {
			if err := runSyncTCP(*addr); err != nil {
				log.Warn("sync disconnected", logger.Error(err))
			}
			time.Sleep(time.Second)
		}
	case "ws", "":
		wsURL, err := websocketURL(baseURL, "/ws")
		if err != nil {
			fatal("invalid base url", err)
		}
		for {
			if err := runWebSocket(wsURL); err != nil {
				log.Warn("websocket disconnected", logger.Error(err))
			}
			time.Sleep(time.Second)
		}
	default:
		fatal("usage: recipehub watch <ws|tcp>", nil)
	}
}

func runSyncTCP(addr string) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	log.Info("sync connected", logger.String("addr", addr))
	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		printEvent(sc.Bytes())
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return io.EOF
}

func runWebSocket(wsURL string) error {
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	log.Info("websocket connected", logger.String("url", wsURL))
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		printEvent(bytes.TrimSpace(msg))
	}
}

func printEvent(line []byte) {
	var obj map[string]any
	if err := json.Unmarshal(line, &obj); err != nil {
		fmt.Println(string(line))
		return
	}
	printJSON(obj)
}

func doJSON(ctx context.Context, client *http.Client, method, endpoint string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s: %d %s", method, endpoint, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

func splitNonEmpty(s, sep string) []string {
	out := []string{}
	for _, part := range strings.Split(s, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func printJSON(v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fatal("json", err)
	}
	fmt.Println(string(b))
}

func websocketURL(baseURL, path string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	scheme := "ws"
	if u.Scheme == "https" {
		scheme = "wss"
	}
	return (&url.URL{Scheme: scheme, Host: u.Host, Path: path}).String(), nil
}

func fatal(msg string, err error) {
	if err != nil {
		log.Error(msg, logger.Error(err))
	} else {
		log.Error(msg)
	}
	_ = log.Sync()
	os.Exit(1)
}

func printUsage() {
	fmt.Println("recipehub [-api URL] <command> [subcommand] [flags]")
	fmt.Println("commands:")
	fmt.Println("  recipes list|search|get|create")
	fmt.Println("  types")
	fmt.Println("  diets")
	fmt.Println("  watch ws|tcp")
}
