package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	grpcapp "github.com/achufistov/shortypanel/internal/app/grpc"
)

func main() {
	// Get gRPC address from environment or use default
	grpcAddr := "localhost:9090"
	if envAddr := os.Getenv("GRPC_ADDRESS"); envAddr != "" {
		grpcAddr = envAddr
	}

	addr := flag.String("addr", grpcAddr, "gRPC server address")
	token := flag.String("token", os.Getenv("SHORTENER_TOKEN"), "session token (admin token required for stats)")
	longURL := flag.String("url", "https://example.com/very/long/url", "URL to shorten")
	flag.Parse()

	conn, err := grpc.NewClient(*addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close()

	client := grpcapp.NewClient(conn)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	if *token != "" {
		ctx = grpcapp.WithToken(ctx, *token)
	}

	fmt.Println("Testing Ping...")
	if err := client.Ping(ctx); err != nil {
		log.Printf("Ping failed: %v", err)
	} else {
		fmt.Println("Ping: ok")
	}

	fmt.Println("\nTesting Shorten...")
	code, err := client.Shorten(ctx, *longURL)
	if err != nil {
		log.Printf("Shorten failed: %v", err)
	} else {
		fmt.Printf("Short code: %s\n", code)

		fmt.Println("\nTesting Resolve...")
		resolved, err := client.Resolve(ctx, code)
		if err != nil {
			log.Printf("Resolve failed: %v", err)
		} else {
			fmt.Printf("%s -> %s\n", code, resolved)
		}
	}

	fmt.Println("\nTesting Stats...")
	stats, err := client.Stats(ctx)
	if err != nil {
		log.Printf("Stats failed: %v", err)
	} else {
		fmt.Printf("Stats: URLs=%d, Users=%d, Visits=%d\n", stats.URLs, stats.Users, stats.Visits)
	}

	fmt.Println("\nAll calls completed!")
}
