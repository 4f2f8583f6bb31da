package main

import (
	"fmt"

	_ "github.com/agentuity/go-resultcache/cache"
	_ "github.com/agentuity/go-resultcache/env"
	_ "github.com/agentuity/go-resultcache/fingerprint"
	_ "github.com/agentuity/go-resultcache/logger"
	_ "github.com/agentuity/go-resultcache/resilience"
	_ "github.com/agentuity/go-resultcache/resultcache"
)

func main() {
	fmt.Println("Hi")
}
