// Сервер телеметрии: собирает статистику вызовов и снимки хоста, создаёт алерты
// и отдаёт их через HTTP.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/levinOo/go-telemetry-project/internal/config"
	"github.com/levinOo/go-telemetry-project/internal/service"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	cfg, err := config.GetConfig(args)
	if err != nil {
		return fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}

	return service.Serve(cfg)
}
