package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"mangarank/internal/auth"
	"mangarank/internal/blob"
	"mangarank/internal/catalog"
	"mangarank/internal/favorites"
	"mangarank/internal/notify"
	"mangarank/internal/profile"
	"mangarank/internal/ranking"
	synchub "mangarank/internal/sync"
	"mangarank/pkg/database"
	"mangarank/pkg/utils"
)

func main() {
	httpAddr := flag.String("http", ":8080", "HTTP listen address")
	tcpAddr := flag.String("tcp", ":7070", "TCP firehose listen address")
	udpAddr := flag.String("udp", ":9091", "UDP notify listen address")
	seedPath := flag.String("seed", "", "optional manga JSON to seed the catalog")
	flag.Parse()

	utils.LoadEnv()

	cfg := database.DefaultConfig()
	db := database.MustOpen(cfg)
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	router := gin.Default()
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	// Start TCP sync first (so you notice binding errors early)
	hub := synchub.NewHub()
	tcpSrv := synchub.NewServer(*tcpAddr, hub)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": cfg.Path})
	})

	router.GET("/ready", func(c *gin.Context) {
		stats := hub.Stats()
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":      "not_ready",
				"db_error":    err.Error(),
				"tcp_clients": stats.TCPClients,
				"ws_clients":  stats.WSClients,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":      "ready",
			"db":          "ok",
			"tcp_clients": stats.TCPClients,
			"ws_clients":  stats.WSClients,
		})
	})

	router.GET("/debug", func(c *gin.Context) {
		stats := hub.Stats()
		c.JSON(http.StatusOK, gin.H{
			"db":          cfg.Path,
			"tcp_clients": stats.TCPClients,
			"ws_clients":  stats.WSClients,
			"topics":      stats.Topics,
			"subscribers": stats.Subscribers,
		})
	})

	// Catalog (public)
	covers := blob.NewResolver(utils.LoadBlobConfig())
	catalogRepo := catalog.NewRepo(db)
	catalogHandler := catalog.NewHandler(catalogRepo, covers)
	catalogHandler.RegisterRoutes(router.Group("/manga"))

	if *seedPath != "" {
		list, err := catalog.LoadMangaFromJSON(*seedPath)
		if err != nil {
			log.Fatalf("load seed: %v", err)
		}
		n, err := catalogRepo.Seed(context.Background(), list)
		if err != nil {
			log.Fatalf("seed catalog: %v", err)
		}
		log.Printf("seeded %d catalog entries from %s", n, *seedPath)
	}

	// Auth
	authCfg := utils.LoadAuthConfig()
	tokenSvc := auth.TokenService{
		Secret:   []byte(authCfg.JWTSecret),
		Issuer:   authCfg.JWTIssuer,
		Duration: authCfg.JWTDuration,
	}
	authRepo := auth.NewRepo(db)
	authHandler := auth.NewHandler(authRepo, tokenSvc)
	authHandler.RegisterRoutes(router.Group("/auth"))

	// Rankings: public reads carry optional auth so owners can open
	// their private lists through share URLs.
	notifyRegistry := notify.NewRegistry()
	notifySrv := notify.NewServer(*udpAddr, notifyRegistry, log.Default())

	rankingRepo := ranking.NewRepo(db)
	rankingHandler := ranking.NewHandler(rankingRepo, catalogRepo, hub)
	rankingHandler.Notify = notifySrv
	publicRankings := router.Group("/rankings")
	publicRankings.Use(auth.OptionalAuth(tokenSvc, authRepo))
	rankingHandler.RegisterPublic(publicRankings)

	// Profiles (public handle lookup)
	profileRepo := profile.NewRepo(db)
	profileHandler := profile.NewHandler(profileRepo, covers)
	profileHandler.RegisterPublic(router.Group("/profiles"))

	// Protected routes
	protected := router.Group("/users")
	protected.Use(auth.AuthMiddleware(tokenSvc, authRepo))

	protected.GET("/me", func(c *gin.Context) {
		claims := auth.MustGetClaims(c)
		c.JSON(http.StatusOK, gin.H{
			"id":       claims.UserID,
			"username": claims.Username,
			"email":    claims.Email,
			"handle":   claims.Handle,
		})
	})

	rankingHandler.RegisterProtected(protected)
	profileHandler.RegisterProtected(protected)

	favRepo := favorites.NewRepo(db)
	favHandler := favorites.NewHandler(favRepo, catalogRepo, hub)
	favHandler.RegisterRoutes(protected)

	// WebSocket endpoints: firehose plus per-ranking subscriptions.
	router.GET("/ws", synchub.WSHandler(hub))
	wsRankings := router.Group("/ws/rankings")
	wsRankings.Use(auth.OptionalAuth(tokenSvc, authRepo))
	wsRankings.GET("/:id", synchub.RankingWSHandler(hub, rankingRepo, rankingHandler.CanRead))

	httpSrv := &http.Server{
		Addr:    *httpAddr,
		Handler: router,
	}

	errCh := make(chan error, 3)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := tcpSrv.Run(); err != nil {
			errCh <- err
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := notifySrv.Run(); err != nil {
			errCh <- err
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("HTTP API server listening on %s", *httpAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("shutdown signal received: %s", sig)
	case err := <-errCh:
		log.Printf("server error: %v", err)
	}

	log.Println("shutting down servers")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown error: %v", err)
	}
	if err := tcpSrv.Close(); err != nil {
		log.Printf("tcp shutdown error: %v", err)
	}
	if err := notifySrv.Close(); err != nil {
		log.Printf("udp shutdown error: %v", err)
	}

	wg.Wait()
	log.Println("servers stopped")
}
