package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/VitaminP8/forum/internal/config"
	"github.com/VitaminP8/forum/internal/httpapi"
	"github.com/VitaminP8/forum/internal/metrics"
	"github.com/VitaminP8/forum/internal/post"
	"github.com/VitaminP8/forum/internal/storage/memory"
	"github.com/VitaminP8/forum/internal/storage/relational"
	"github.com/VitaminP8/forum/internal/subscription"
	"github.com/VitaminP8/forum/internal/thread"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// postStore - хранилище, из которого умеет читать сборщик дерева
type postStore interface {
	post.PostStorage
	thread.Source
}

func main() {
	storageType := flag.String("storage", "", "Тип хранилища: sqlite3, postgres или memory (по умолчанию из конфига)")
	configPath := flag.String("config", "", "Путь к YAML конфигу")
	debugSQL := flag.Bool("debug-sql", false, "Логировать SQL запросы")
	flag.Parse()

	// загружаем .env, затем конфиг
	config.LoadEnv()
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	var store postStore
	var conn *relational.Conn

	switch *storageType {
	case "memory":
		log.Println("Используется in-memory хранилище")
		store = memory.NewPostMemoryStorage()

	case "", relational.DriverSQLite, relational.DriverPostgres:
		if *storageType != "" {
			cfg.DBDriver = *storageType
			if err := cfg.Validate(); err != nil {
				log.Fatalf("invalid config: %v", err)
			}
		}

		conn, err = relational.Open(cfg.DBDriver, cfg.DataSource())
		if err != nil {
			log.Fatalf("failed to open storage: %v", err)
		}
		conn.SetDebug(*debugSQL)

		log.Printf("Используется %s хранилище", cfg.DBDriver)
		store = relational.NewPostRelationalStorage(conn).WithMetrics(m)

	default:
		log.Fatalf("неизвестный тип хранилища: %s", *storageType)
	}

	handler := httpapi.NewHandler(
		store,
		thread.NewAssembler(store).WithObserver(m),
		subscription.NewSubscriptionManager(),
	)

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           httpapi.NewRouter(handler, promhttp.Handler()),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// запуск HTTP сервера
	go func() {
		log.Printf("Сервер запущен на http://%s/", cfg.Addr())
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Ошибка сервера: %v", err)
		}
	}()

	// Ожидание SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Завершение...")

	// SSE соединения держатся открытыми, поэтому ждем не бесконечно
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Ошибка при завершении сервера: %v", err)
	}

	if conn != nil {
		if err := conn.Close(); err != nil {
			log.Printf("Ошибка при закрытии БД: %v", err)
		}
	}

	log.Println("Сервер остановлен корректно")
}
