package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

const (
	defaultServerURL = "http://localhost:8080"
	totalRequests    = 50
)

type checkoutRequest struct {
	Items    []checkoutItem `json:"items"`
	IsMember bool           `json:"isMember"`
}

type checkoutItem struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type checkoutResponse struct {
	SubTotal   float64 `json:"subTotal"`
	FinalPrice float64 `json:"finalPrice"`
	Discounts  struct {
		Bulk   float64 `json:"bulk"`
		Member float64 `json:"member"`
	} `json:"discounts"`
}

// Fires identical checkout requests concurrently at a running server and
// verifies every response carries the same final price: pricing must be
// stateless and referentially transparent under load.
func main() {
	serverURL := os.Getenv("SERVER_URL")
	if serverURL == "" {
		serverURL = defaultServerURL
	}

	payload, err := json.Marshal(checkoutRequest{
		Items:    []checkoutItem{{ProductID: 1, Quantity: 3}},
		IsMember: true,
	})
	if err != nil {
		log.Fatalf("failed to marshal request: %v", err)
	}

	client := &http.Client{Timeout: 5 * time.Second}

	var successCount atomic.Int32
	var failCount atomic.Int32
	var prices sync.Map

	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			resp, err := client.Post(serverURL+"/checkout", "application/json", bytes.NewReader(payload))
			if err != nil {
				failCount.Add(1)
				return
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				failCount.Add(1)
				return
			}

			var result checkoutResponse
			if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
				failCount.Add(1)
				return
			}

			prices.Store(result.FinalPrice, true)
			successCount.Add(1)
		}()
	}

	wg.Wait()
	elapsed := time.Since(start)

	distinctPrices := 0
	var observed float64
	prices.Range(func(key, _ any) bool {
		distinctPrices++
		observed = key.(float64)
		return true
	})

	success := successCount.Load()
	fail := failCount.Load()

	fmt.Println("========== CHECKOUT LOAD TEST ==========")
	fmt.Printf("Total Requests:   %d\n", totalRequests)
	fmt.Printf("Successful:       %d\n", success)
	fmt.Printf("Failed:           %d\n", fail)
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("========================================")

	if fail > 0 {
		fmt.Printf("FAIL: %d requests failed\n", fail)
		os.Exit(1)
	}

	if distinctPrices == 1 {
		fmt.Printf("PASS: all %d responses priced identically (finalPrice=%v)\n", success, observed)
	} else {
		fmt.Printf("FAIL: observed %d distinct final prices for identical carts\n", distinctPrices)
		os.Exit(1)
	}
}
