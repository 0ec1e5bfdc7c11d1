package main

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"mangarank/pkg/client"
	"mangarank/pkg/models"
	"mangarank/pkg/rankview"
)

type tokenData struct {
	Token string `json:"token"`
}

func main() {
	global := flag.NewFlagSet("mangarank", flag.ExitOnError)
	baseURL := global.String("api", client.DefaultBaseURL, "API base URL")
	tokenPath := global.String("token", defaultTokenPath(), "token file path")
	if err := global.Parse(os.Args[1:]); err != nil {
		log.Fatalf("parse flags: %v", err)
	}
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

	switch cmd {
	case "auth":
		handleAuth(ctx, *baseURL, *tokenPath, sub, args[2:])
	case "manga":
		handleManga(ctx, *baseURL, sub, args[2:])
	case "ranking":
		handleRanking(ctx, *baseURL, *tokenPath, sub, args[2:])
	case "favorites":
		handleFavorites(ctx, *baseURL, *tokenPath, sub, args[2:])
	case "profile":
		handleProfile(ctx, *baseURL, *tokenPath, sub, args[2:])
	case "sync":
		handleSync(sub, args[2:])
	case "notify":
		handleNotify(*baseURL, sub, args[2:])
	case "export":
		handleExport(ctx, *baseURL, sub, args[2:])
	default:
		printUsage()
		os.Exit(1)
	}
}

func apiClient(baseURL, tokenPath string, needAuth bool) *client.Client {
	token, _ := readToken(tokenPath)
	if needAuth && token == "" {
		log.Fatal("not logged in, run: mangarank auth login")
	}
	return client.New(baseURL, token)
}

func handleAuth(ctx context.Context, baseURL, tokenPath, sub string, args []string) {
	switch sub {
	case "login":
		fs := flag.NewFlagSet("auth login", flag.ExitOnError)
		email := fs.String("email", "", "email address")
		password := fs.String("password", "", "password")
		_ = fs.Parse(args)

		if *email == "" || *password == "" {
			log.Fatal("email and password are required")
		}

		resp, err := apiClient(baseURL, tokenPath, false).Login(ctx, *email, *password)
		if err != nil {
			log.Fatalf("login failed: %v", err)
		}
		if err := saveToken(tokenPath, resp.Token); err != nil {
			log.Fatalf("save token: %v", err)
		}
		fmt.Printf("✅ logged in as @%s\n", resp.User.Handle)
	case "register":
		fs := flag.NewFlagSet("auth register", flag.ExitOnError)
		username := fs.String("username", "", "username")
		email := fs.String("email", "", "email address")
		password := fs.String("password", "", "password")
		_ = fs.Parse(args)

		if *username == "" || *email == "" || *password == "" {
			log.Fatal("username, email, and password are required")
		}

		resp, err := apiClient(baseURL, tokenPath, false).Register(ctx, *username, *email, *password)
		if err != nil {
			log.Fatalf("register failed: %v", err)
		}
		if err := saveToken(tokenPath, resp.Token); err != nil {
			log.Fatalf("save token: %v", err)
		}
		fmt.Printf("✅ registered as @%s\n", resp.User.Handle)
	case "logout":
		if err := clearToken(tokenPath); err != nil {
			log.Fatalf("logout failed: %v", err)
		}
		fmt.Println("✅ logged out")
	default:
		log.Fatal("usage: mangarank auth <login|register|logout>")
	}
}

func handleManga(ctx context.Context, baseURL, sub string, args []string) {
	c := client.New(baseURL, "")
	switch sub {
	case "search":
		fs := flag.NewFlagSet("manga search", flag.ExitOnError)
		query := fs.String("q", "", "title/author prefix")
		limit := fs.Int("limit", 20, "page size")
		offset := fs.Int("offset", 0, "offset")
		_ = fs.Parse(args)

		resp, err := c.SearchManga(ctx, *query, *limit, *offset)
		if err != nil {
			log.Fatalf("search failed: %v", err)
		}
		printJSON(resp)
	case "show":
		fs := flag.NewFlagSet("manga show", flag.ExitOnError)
		id := fs.String("id", "", "manga id")
		_ = fs.Parse(args)
		if *id == "" {
			log.Fatal("manga id is required")
		}

		m, err := c.GetManga(ctx, *id)
		if err != nil {
			log.Fatalf("show failed: %v", err)
		}
		if m == nil {
			log.Fatal("not found")
		}
		printJSON(m)
	default:
		log.Fatal("usage: mangarank manga <search|show>")
	}
}

func handleRanking(ctx context.Context, baseURL, tokenPath, sub string, args []string) {
	switch sub {
	case "create":
		fs := flag.NewFlagSet("ranking create", flag.ExitOnError)
		title := fs.String("title", "", "ranking title")
		visibility := fs.String("visibility", "public", "public or private")
		_ = fs.Parse(args)
		if *title == "" {
			log.Fatal("title is required")
		}

		rk, err := apiClient(baseURL, tokenPath, true).CreateRanking(ctx, *title, *visibility)
		if err != nil {
			log.Fatalf("create failed: %v", err)
		}
		printJSON(rk)
		fmt.Printf("✅ share URL tail: %s-%s\n", rk.Slug, rk.ShortID)
	case "list":
		resp, err := apiClient(baseURL, tokenPath, true).ListRankings(ctx)
		if err != nil {
			log.Fatalf("list failed: %v", err)
		}
		printJSON(resp)
	case "show":
		fs := flag.NewFlagSet("ranking show", flag.ExitOnError)
		id := fs.String("id", "", "ranking id")
		_ = fs.Parse(args)
		if *id == "" {
			log.Fatal("ranking id is required")
		}

		view, err := apiClient(baseURL, tokenPath, false).GetRanking(ctx, *id)
		if err != nil {
			log.Fatalf("show failed: %v", err)
		}
		printJSON(view)
	case "resolve":
		fs := flag.NewFlagSet("ranking resolve", flag.ExitOnError)
		handle := fs.String("handle", "", "owner handle")
		slug := fs.String("slug", "", "ranking slug")
		short := fs.String("short", "", "slug-shortid tail")
		_ = fs.Parse(args)

		rk, err := apiClient(baseURL, tokenPath, false).ResolveShare(ctx, *handle, *slug, *short)
		if err != nil {
			log.Fatalf("resolve failed: %v", err)
		}
		printJSON(rk)
	case "delete":
		fs := flag.NewFlagSet("ranking delete", flag.ExitOnError)
		id := fs.String("id", "", "ranking id")
		_ = fs.Parse(args)
		if *id == "" {
			log.Fatal("ranking id is required")
		}

		if err := apiClient(baseURL, tokenPath, true).DeleteRanking(ctx, *id); err != nil {
			log.Fatalf("delete failed: %v", err)
		}
		fmt.Println("✅ deleted")
	case "add":
		fs := flag.NewFlagSet("ranking add", flag.ExitOnError)
		id := fs.String("id", "", "ranking id")
		mangaIDs := fs.String("manga-ids", "", "comma-separated manga ids")
		_ = fs.Parse(args)
		if *id == "" || *mangaIDs == "" {
			log.Fatal("id and manga-ids are required")
		}

		ids := strings.Split(*mangaIDs, ",")
		if err := apiClient(baseURL, tokenPath, true).AddRankingItems(ctx, *id, ids); err != nil {
			log.Fatalf("add failed: %v", err)
		}
		fmt.Printf("✅ added %d manga\n", len(ids))
	case "remove":
		fs := flag.NewFlagSet("ranking remove", flag.ExitOnError)
		id := fs.String("id", "", "ranking id")
		mangaID := fs.String("manga-id", "", "manga id")
		_ = fs.Parse(args)
		if *id == "" || *mangaID == "" {
			log.Fatal("id and manga-id are required")
		}

		c := apiClient(baseURL, tokenPath, true)
		if err := c.DeleteItem(ctx, *id, *mangaID); err != nil {
			log.Fatalf("remove failed: %v", err)
		}
		fmt.Println("✅ removed")
	case "reorder":
		fs := flag.NewFlagSet("ranking reorder", flag.ExitOnError)
		id := fs.String("id", "", "ranking id")
		order := fs.String("order", "", "comma-separated manga ids, rank 1 first")
		_ = fs.Parse(args)
		if *id == "" || *order == "" {
			log.Fatal("id and order are required")
		}

		c := apiClient(baseURL, tokenPath, true)
		if err := c.SaveOrder(ctx, *id, strings.Split(*order, ",")); err != nil {
			log.Fatalf("reorder failed: %v", err)
		}
		fmt.Println("✅ reordered")
	case "manage":
		fs := flag.NewFlagSet("ranking manage", flag.ExitOnError)
		id := fs.String("id", "", "ranking id")
		_ = fs.Parse(args)
		if *id == "" {
			log.Fatal("ranking id is required")
		}
		manageRanking(ctx, apiClient(baseURL, tokenPath, true), *id)
	default:
		log.Fatal("usage: mangarank ranking <create|list|show|resolve|delete|add|remove|reorder|manage>")
	}
}

// manageRanking runs the live editing session: a local view stays
// subscribed to the server and applies moves optimistically, exactly
// like the drag-and-drop UI does.
func manageRanking(ctx context.Context, c *client.Client, rankingID string) {
	render := func(v *rankview.View) {
		if v == nil {
			// first snapshot can land before Open returns
			return
		}
		fmt.Println("---")
		for i, it := range v.Items() {
			line := fmt.Sprintf("%2d. %s", i+1, it.MangaID)
			if m := v.Manga(it.MangaID); m != nil {
				line += fmt.Sprintf("  %s — %s", m.Title, m.Author)
			} else if it.Title != "" {
				line += "  " + it.Title
			}
			fmt.Println(line)
		}
		if v.Awaiting() {
			fmt.Println("(saving...)")
		}
		if err := v.LastError(); err != nil {
			fmt.Printf("(!) last save failed: %v\n", err)
		}
	}

	var view *rankview.View
	view, err := rankview.Open(c, rankingID, rankview.Options{
		OnChange: func() { render(view) },
	})
	if err != nil {
		log.Fatalf("open ranking: %v", err)
	}
	defer view.Close()

	drag := rankview.NewController(view)

	fmt.Println("commands: move <rank> <rank> | rm <rank> | list | quit")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "quit", "q":
			return
		case "list", "ls":
			render(view)
		case "move", "mv":
			if len(fields) != 3 {
				fmt.Println("usage: move <from-rank> <to-rank>")
				continue
			}
			from, err1 := strconv.Atoi(fields[1])
			to, err2 := strconv.Atoi(fields[2])
			if err1 != nil || err2 != nil {
				fmt.Println("ranks must be numbers")
				continue
			}
			order := view.Order()
			if from < 1 || from > len(order) || to < 1 || to > len(order) {
				fmt.Println("rank out of range")
				continue
			}
			id := order[from-1]
			drag.OnDragStart(id)
			if err := drag.OnDragEnd(ctx, id, to-1); err != nil {
				fmt.Printf("move failed: %v\n", err)
				view.DismissError()
			}
		case "rm":
			if len(fields) != 2 {
				fmt.Println("usage: rm <rank>")
				continue
			}
			rank, err := strconv.Atoi(fields[1])
			order := view.Order()
			if err != nil || rank < 1 || rank > len(order) {
				fmt.Println("rank out of range")
				continue
			}
			if err := view.Remove(ctx, order[rank-1]); err != nil {
				fmt.Printf("remove failed: %v\n", err)
				view.DismissError()
			}
		default:
			fmt.Println("commands: move <rank> <rank> | rm <rank> | list | quit")
		}
	}
}

func handleFavorites(ctx context.Context, baseURL, tokenPath, sub string, args []string) {
	c := apiClient(baseURL, tokenPath, true)
	switch sub {
	case "add":
		fs := flag.NewFlagSet("favorites add", flag.ExitOnError)
		mangaID := fs.String("manga-id", "", "manga id")
		_ = fs.Parse(args)
		if *mangaID == "" {
			log.Fatal("manga-id is required")
		}
		if err := c.PutFavorite(ctx, *mangaID); err != nil {
			log.Fatalf("add failed: %v", err)
		}
		fmt.Println("✅ favorited")
	case "remove":
		fs := flag.NewFlagSet("favorites remove", flag.ExitOnError)
		mangaID := fs.String("manga-id", "", "manga id")
		_ = fs.Parse(args)
		if *mangaID == "" {
			log.Fatal("manga-id is required")
		}
		if err := c.RemoveFavorite(ctx, *mangaID); err != nil {
			log.Fatalf("remove failed: %v", err)
		}
		fmt.Println("✅ removed")
	case "list":
		fs := flag.NewFlagSet("favorites list", flag.ExitOnError)
		limit := fs.Int("limit", 50, "page size")
		offset := fs.Int("offset", 0, "offset")
		_ = fs.Parse(args)

		resp, err := c.ListFavorites(ctx, *limit, *offset)
		if err != nil {
			log.Fatalf("list failed: %v", err)
		}
		printJSON(resp)
	default:
		log.Fatal("usage: mangarank favorites <add|remove|list>")
	}
}

func handleProfile(ctx context.Context, baseURL, tokenPath, sub string, args []string) {
	switch sub {
	case "show":
		p, err := apiClient(baseURL, tokenPath, true).GetProfile(ctx)
		if err != nil {
			log.Fatalf("show failed: %v", err)
		}
		printJSON(p)
	case "update":
		fs := flag.NewFlagSet("profile update", flag.ExitOnError)
		displayName := fs.String("display-name", "", "display name")
		bio := fs.String("bio", "", "bio")
		photo := fs.String("photo", "", "photo URL or storage path")
		_ = fs.Parse(args)

		patch := map[string]any{}
		fs.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "display-name":
				patch["display_name"] = *displayName
			case "bio":
				patch["bio"] = *bio
			case "photo":
				patch["photo_url"] = *photo
			}
		})
		if len(patch) == 0 {
			log.Fatal("nothing to update")
		}

		p, err := apiClient(baseURL, tokenPath, true).UpdateProfile(ctx, patch)
		if err != nil {
			log.Fatalf("update failed: %v", err)
		}
		printJSON(p)
	case "view":
		fs := flag.NewFlagSet("profile view", flag.ExitOnError)
		handle := fs.String("handle", "", "public handle")
		_ = fs.Parse(args)
		if *handle == "" {
			log.Fatal("handle is required")
		}

		p, err := apiClient(baseURL, tokenPath, false).GetPublicProfile(ctx, *handle)
		if err != nil {
			log.Fatalf("view failed: %v", err)
		}
		printJSON(p)
	default:
		log.Fatal("usage: mangarank profile <show|update|view>")
	}
}

func handleSync(sub string, args []string) {
	switch sub {
	case "listen":
		fs := flag.NewFlagSet("sync listen", flag.ExitOnError)
		addr := fs.String("addr", "127.0.0.1:7070", "TCP sync server address")
		pretty := fs.Bool("pretty", true, "pretty print JSON events")
		_ = fs.Parse(args)
		for {
			if err := runSyncTCP(*addr, *pretty); err != nil {
				log.Printf("[sync] disconnected: %v", err)
			}
			time.Sleep(1 * time.Second)
		}
	default:
		log.Fatal("usage: mangarank sync listen")
	}
}

func handleNotify(baseURL, sub string, args []string) {
	switch sub {
	case "subscribe":
		fs := flag.NewFlagSet("notify subscribe", flag.ExitOnError)
		wsURL := fs.String("ws", "", "WebSocket URL (defaults to /ws on API host)")
		ranking := fs.String("ranking", "", "subscribe to one ranking instead of the firehose")
		_ = fs.Parse(args)

		endpoint := *wsURL
		if endpoint == "" {
			path := "/ws"
			if *ranking != "" {
				path = "/ws/rankings/" + *ranking
			}
			var err error
			endpoint, err = websocketURL(baseURL, path)
			if err != nil {
				log.Fatalf("ws url: %v", err)
			}
		}
		if err := runWebSocket(endpoint); err != nil {
			log.Fatalf("subscribe failed: %v", err)
		}
	default:
		log.Fatal("usage: mangarank notify subscribe")
	}
}

func handleExport(ctx context.Context, baseURL, sub string, args []string) {
	switch sub {
	case "json":
		fs := flag.NewFlagSet("export json", flag.ExitOnError)
		id := fs.String("id", "", "ranking id")
		out := fs.String("out", "data/ranking.json", "output JSON path")
		_ = fs.Parse(args)
		if *id == "" {
			log.Fatal("ranking id is required")
		}

		view, err := client.New(baseURL, "").GetRanking(ctx, *id)
		if err != nil {
			log.Fatalf("export json failed: %v", err)
		}
		if err := writeJSON(*out, view); err != nil {
			log.Fatalf("write json failed: %v", err)
		}
		log.Printf("✅ exported %d items to %s", len(view.Items), *out)
	case "csv":
		fs := flag.NewFlagSet("export csv", flag.ExitOnError)
		id := fs.String("id", "", "ranking id")
		out := fs.String("out", "data/ranking.csv", "output CSV path")
		_ = fs.Parse(args)
		if *id == "" {
			log.Fatal("ranking id is required")
		}

		view, err := client.New(baseURL, "").GetRanking(ctx, *id)
		if err != nil {
			log.Fatalf("export csv failed: %v", err)
		}
		if err := writeCSV(*out, view.Items); err != nil {
			log.Fatalf("write csv failed: %v", err)
		}
		log.Printf("✅ exported %d items to %s", len(view.Items), *out)
	default:
		log.Fatal("usage: mangarank export <json|csv>")
	}
}

func runSyncTCP(addr string, pretty bool) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	log.Printf("[sync] connected to %s", addr)
	reader := bufio.NewScanner(conn)
	for reader.Scan() {
		line := reader.Bytes()
		if !pretty {
			fmt.Println(string(line))
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal(line, &obj); err != nil {
			fmt.Println(string(line))
			continue
		}
		b, _ := json.MarshalIndent(obj, "", "  ")
		fmt.Println(string(b))
	}
	if err := reader.Err(); err != nil {
		return err
	}
	return os.ErrClosed
}

func runWebSocket(wsURL string) error {
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	log.Printf("[notify] connected to %s", wsURL)
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		fmt.Println(string(msg))
	}
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func writeCSV(path string, items []models.RankingItem) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"position", "manga_id", "title", "author", "cover_url"}); err != nil {
		return err
	}
	for _, item := range items {
		if err := writer.Write([]string{
			fmt.Sprintf("%d", item.Position),
			item.MangaID,
			item.Title,
			item.Author,
			item.CoverURL,
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func printJSON(v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("json: %v", err)
	}
	fmt.Println(string(b))
}

func defaultTokenPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./.mangarank-token.json"
	}
	return filepath.Join(home, ".mangarank", "token.json")
}

func saveToken(path, token string) error {
	if token == "" {
		return errors.New("empty token")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(tokenData{Token: token}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func readToken(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	var td tokenData
	if err := json.Unmarshal(data, &td); err != nil {
		return "", err
	}
	return strings.TrimSpace(td.Token), nil
}

func clearToken(path string) error {
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
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
	return (&url.URL{
		Scheme: scheme,
		Host:   u.Host,
		Path:   path,
	}).String(), nil
}

func printUsage() {
	fmt.Println("mangarank <command> [subcommand] [flags]")
	fmt.Println("commands:")
	fmt.Println("  auth login|register|logout")
	fmt.Println("  manga search|show")
	fmt.Println("  ranking create|list|show|resolve|delete|add|remove|reorder|manage")
	fmt.Println("  favorites add|remove|list")
	fmt.Println("  profile show|update|view")
	fmt.Println("  sync listen")
	fmt.Println("  notify subscribe")
	fmt.Println("  export json|csv")
}
