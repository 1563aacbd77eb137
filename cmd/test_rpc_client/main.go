package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	grpc_adapter "github.com/JoeShih716/go-bank-agent/internal/app/agent/adapter/in/grpc"
	grpcpool "github.com/JoeShih716/go-bank-agent/pkg/grpc"
)

func main() {
	addr := flag.String("addr", "localhost:50052", "agent gRPC address")
	token := flag.String("token", "", "customer auth token")
	prompt := flag.String("prompt", "What is my balance?", "prompt to send")
	total := flag.Int("n", 1, "number of requests")
	concurrency := flag.Int("c", 1, "concurrent requests")
	flag.Parse()

	pool := grpcpool.NewPool(
		grpcpool.WithAuthorization("Bearer "+*token),
		grpcpool.WithInterceptor(requestID),
	)
	defer pool.Close()

	conn, err := pool.GetConnection(*addr)
	if err != nil {
		log.Fatalf("did not connect: %v", err)
	}
	client := grpc_adapter.NewAgentServiceClient(conn)

	req, err := structpb.NewStruct(map[string]any{"prompt": *prompt})
	if err != nil {
		log.Fatalf("build request: %v", err)
	}

	// 單筆時直接印出回覆
	if *total == 1 {
		ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
		defer cancel()
		out, err := client.Chat(ctx, req)
		if err != nil {
			log.Fatalf("chat failed: %v", err)
		}
		raw, _ := out.MarshalJSON()
		fmt.Println(string(raw))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	var (
		wg     sync.WaitGroup
		failed atomic.Int64
		sem    = make(chan struct{}, *concurrency)
	)
	wg.Add(*total)
	start := time.Now()

	for i := 0; i < *total; i++ {
		sem <- struct{}{}
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()

			if _, err := client.Chat(ctx, req); err != nil {
				failed.Add(1)
				if idx%100 == 0 {
					log.Printf("request %d failed: %s", idx, status.Convert(err).Message())
				}
			}
		}(i)
	}
	wg.Wait()

	elapsed := time.Since(start)
	fmt.Printf("Completed %d requests (%d failed) in %v\n", *total, failed.Load(), elapsed)
	fmt.Printf("RPS: %.2f\n", float64(*total)/elapsed.Seconds())
}

// requestID 每個呼叫附上 x-request-id 方便對照伺服器日誌
func requestID(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
	ctx = metadata.AppendToOutgoingContext(ctx, "x-request-id", uuid.NewString())
	return invoker(ctx, method, req, reply, cc, opts...)
}
