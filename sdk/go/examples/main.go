package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	"OxyGent-Console/sdk/go/oxygent"
)

// main 连接 OXYGENT_URL 指向的控制台；未设置时启动一个仅响应智能体接口的演示服务。
func main() {
	baseURL := os.Getenv("OXYGENT_URL")
	if baseURL == "" {
		srv := httptest.NewServer(demoMux())
		defer srv.Close()
		baseURL = srv.URL
	}

	client, err := oxygent.NewClient(baseURL, nil)
	if err != nil {
		panic(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	created, err := client.CreateAgent(ctx, oxygent.Agent{Name: "demo_agent", AgentType: "react"})
	if err != nil {
		panic(err)
	}
	fmt.Printf("registered agent %s (id=%s status=%s)\n", created.Name, created.ID, created.Status)

	result, err := client.TestAgent(ctx, created.ID, map[string]any{"query": "hello"})
	if err != nil {
		panic(err)
	}
	fmt.Printf("test finished in %.3fs: %v\n", result.ExecutionTime, result.Output)

	agents, err := client.ListAgents(ctx)
	if err != nil {
		panic(err)
	}
	fmt.Printf("%d agent(s) registered\n", len(agents))
}

func demoMux() *http.ServeMux {
	var agents []oxygent.Agent
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/agents", func(w http.ResponseWriter, r *http.Request) {
		var in oxygent.Agent
		_ = json.NewDecoder(r.Body).Decode(&in)
		in.ID = fmt.Sprint(len(agents) + 1)
		in.Status = "active"
		agents = append(agents, in)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(in)
	})
	mux.HandleFunc("GET /api/v1/agents", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(agents)
	})
	mux.HandleFunc("POST /api/v1/agents/{id}/test", func(w http.ResponseWriter, r *http.Request) {
		var input map[string]any
		_ = json.NewDecoder(r.Body).Decode(&input)
		_ = json.NewEncoder(w).Encode(oxygent.ActionResult{
			AgentID:       r.PathValue("id"),
			Status:        "success",
			Input:         input,
			Output:        "demo response",
			ExecutionTime: 0.01,
		})
	})
	return mux
}
