package main

import (
	"log"
	"net/http"

	"go.uber.org/zap"

	"trunkline"
	"trunkline/config"
	"trunkline/server"
)

func main() {
	cfg, err := server.LoadConfig()
	if err != nil {
		log.Fatal(err.Error())
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err.Error())
	}
	defer logger.Sync()

	def, err := config.Load(cfg.GameFile)
	if err != nil {
		logger.Fatal("could not load game definition", zap.String("file", cfg.GameFile), zap.Error(err))
	}

	var rooms *server.RoomRegistry
	if cfg.RedisAddr != "" {
		rooms = server.NewRoomRegistry(cfg.RedisAddr)
		defer rooms.Close()
	}

	s := server.NewServer(trunkline.NewInMemoryGameStore(), def, rooms, logger)
	logger.Info("listening", zap.String("addr", cfg.Addr), zap.String("game", def.Title))
	logger.Fatal("server stopped", zap.Error(http.ListenAndServe(cfg.Addr, s)))
}
