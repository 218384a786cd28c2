package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"

	"thangd/auth"
	"thangd/booking"
	"thangd/changefeed"
	"thangd/db"
	"thangd/ratelim"
	"thangd/rdx"
	"thangd/routes"
	"thangd/store"
	"thangd/store/mongostore"
	"thangd/thang"
)

// securityHeaders applies a set of recommended HTTP security headers.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "frame-ancestors 'none'")
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs each request method, path, remote address, and duration.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s from %s in %v", r.Method, r.RequestURI, r.RemoteAddr, time.Since(start))
	})
}

// Index is a simple health check handler.
func Index(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	fmt.Fprint(w, "200")
}

func setupRouter(st store.Store, feeds *changefeed.Feeds, rateLimiter *ratelim.RateLimiter) *httprouter.Router {
	bookingSvc := booking.NewService(st, nil)
	thangSvc := thang.NewService(st)

	router := httprouter.New()
	router.GET("/health", Index)
	routes.AddAuthRoutes(router, rateLimiter, auth.NewHandler(st.Users()))
	routes.AddThangRoutes(router, rateLimiter, thang.NewHandler(thangSvc))
	routes.AddBookingRoutes(router, rateLimiter, booking.NewHandler(bookingSvc))
	routes.AddFeedRoutes(router, changefeed.NewWSHandler(feeds))
	return router
}

// startCacheInvalidator keeps the Redis thang cache honest by dropping
// entries whenever the thang change feed reports a mutation.
func startCacheInvalidator(feeds *changefeed.Feeds) {
	if rdx.Conn == nil {
		return
	}
	sub, err := feeds.Thangs.Subscribe(func(store.Change) bool { return true })
	if err != nil {
		log.Printf("cache invalidator unavailable: %v", err)
		return
	}
	go func() {
		for c := range sub.Events() {
			rdx.InvalidateThang(c.ID)
		}
	}()
}

func main() {
	// load .env if present
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found; using system environment")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = ":8080"
	} else if port[0] != ':' {
		port = ":" + port
	}

	client, database, err := db.Connect(context.Background())
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	st := mongostore.New(database)

	rdx.Init()

	feeds := changefeed.New(st)
	startCacheInvalidator(feeds)

	rateLimiter := ratelim.NewRateLimiter()
	router := setupRouter(st, feeds, rateLimiter)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // lock down in production
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(router)

	handler := loggingMiddleware(securityHeaders(corsHandler))

	server := &http.Server{
		Addr:              port,
		Handler:           handler,
		ReadTimeout:       7 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	go func() {
		log.Printf("Server listening on %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutdown signal received; shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Graceful shutdown failed: %v", err)
	}
	if err := client.Disconnect(ctx); err != nil {
		log.Printf("Mongo disconnect: %v", err)
	}

	log.Println("Server stopped cleanly")
}
