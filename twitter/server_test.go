package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	twitter "github.com/g8rswimmer/go-twitter/v2"
	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func resultText(res *mcp.CallToolResult) string {
	Expect(res).NotTo(BeNil())
	Expect(res.Content).To(HaveLen(1))
	tc, ok := res.Content[0].(*mcp.TextContent)
	Expect(ok).To(BeTrue(), "expected *mcp.TextContent, got %T", res.Content[0])
	return tc.Text
}

func rpcCode(err error) int64 {
	var rpcErr *jsonrpc.Error
	Expect(errors.As(err, &rpcErr)).To(BeTrue(), "expected *jsonrpc.Error, got %T", err)
	return rpcErr.Code
}

var _ = Describe("Dispatcher", func() {
	var (
		ctx        context.Context
		api        *stubAPI
		metrics    *Metrics
		dispatcher *Dispatcher
	)

	BeforeEach(func() {
		ctx = context.Background()
		api = &stubAPI{}
		metrics = NewMetrics(prometheus.NewRegistry())
		limiter := NewRateLimitTracker(testIntervals(), newFakeClock().Now)
		dispatcher = NewDispatcher(NewTwitterClient(api, limiter, WithMetrics(metrics)), metrics)
	})

	It("lists post_tweet and search_tweets", func() {
		tools := dispatcher.Tools()
		Expect(tools).To(HaveLen(2))
		Expect(tools[0].Name).To(Equal("post_tweet"))
		Expect(tools[1].Name).To(Equal("search_tweets"))
		Expect(tools[0].InputSchema).NotTo(BeNil())
	})

	Context("post_tweet", func() {
		It("returns the status URL of the new tweet", func() {
			api.createResp = postedResponse("123", "hello")
			res, err := dispatcher.CallTool(ctx, "post_tweet", json.RawMessage(`{"text":"hello"}`))
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeFalse())
			Expect(resultText(res)).To(Equal("Tweet posted successfully!\nURL: https://twitter.com/status/123"))
			Expect(testutil.ToFloat64(metrics.toolCalls.WithLabelValues("post_tweet", outcomeOK))).To(Equal(1.0))
		})

		It("rejects invalid text before any network call", func() {
			for _, raw := range []string{`{"text":""}`, `{}`, `{"text":"` + strings.Repeat("x", 501) + `"}`} {
				_, err := dispatcher.CallTool(ctx, "post_tweet", json.RawMessage(raw))
				Expect(rpcCode(err)).To(Equal(codeInvalidParams))
				Expect(err.Error()).To(ContainSubstring("Invalid parameters"))
			}
			creates, _ := api.calls()
			Expect(creates).To(BeZero())
		})

		It("renders the please-wait text when the API rate limits", func() {
			api.err = &twitter.ErrorResponse{StatusCode: http.StatusTooManyRequests, Title: "Too Many Requests"}
			res, err := dispatcher.CallTool(ctx, "post_tweet", json.RawMessage(`{"text":"hello"}`))
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeTrue())
			Expect(resultText(res)).To(Equal(rateLimitMessage))
			Expect(testutil.ToFloat64(metrics.toolCalls.WithLabelValues("post_tweet", outcomeDomainError))).To(Equal(1.0))
		})

		It("renders the please-wait text when the local gate rejects", func() {
			api.createResp = postedResponse("123", "hello")
			_, err := dispatcher.CallTool(ctx, "post_tweet", json.RawMessage(`{"text":"hello"}`))
			Expect(err).NotTo(HaveOccurred())

			res, err := dispatcher.CallTool(ctx, "post_tweet", json.RawMessage(`{"text":"hello"}`))
			Expect(err).NotTo(HaveOccurred())
			Expect(resultText(res)).To(Equal(rateLimitMessage))
			creates, _ := api.calls()
			Expect(creates).To(Equal(1))
		})

		It("renders other domain errors with their message", func() {
			api.err = &twitter.ErrorResponse{StatusCode: http.StatusForbidden, Title: "Forbidden", Detail: "You are not allowed to create a Tweet with duplicate content."}
			res, err := dispatcher.CallTool(ctx, "post_tweet", json.RawMessage(`{"text":"hello"}`))
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeTrue())
			Expect(resultText(res)).To(Equal("Twitter API error: You are not allowed to create a Tweet with duplicate content."))
		})

		It("turns unclassified failures into an internal error", func() {
			api.createResp = &twitter.CreateTweetResponse{}
			res, err := dispatcher.CallTool(ctx, "post_tweet", json.RawMessage(`{"text":"hello"}`))
			Expect(res).To(BeNil())
			Expect(rpcCode(err)).To(Equal(codeInternalError))
			Expect(testutil.ToFloat64(metrics.toolCalls.WithLabelValues("post_tweet", outcomeProtocolError))).To(Equal(1.0))
		})
	})

	Context("search_tweets", func() {
		It("formats the results with resolved usernames", func() {
			api.searchResp = twoTweetsOneUser()
			res, err := dispatcher.CallTool(ctx, "search_tweets", json.RawMessage(`{"query":"rust","count":10}`))
			Expect(err).NotTo(HaveOccurred())
			text := resultText(res)
			Expect(text).To(HavePrefix(`Search results for "rust" (2 tweets)`))
			Expect(text).To(ContainSubstring("1. @ferris: rust is fast"))
			Expect(text).To(ContainSubstring("2. @ferris: borrow checker again"))
			Expect(text).To(ContainSubstring("Likes: 5 | Retweets: 2"))
		})

		It("rejects out-of-range counts before any network call", func() {
			for _, raw := range []string{`{"query":"rust","count":9}`, `{"query":"rust","count":101}`, `{"query":"rust","count":12.5}`} {
				_, err := dispatcher.CallTool(ctx, "search_tweets", json.RawMessage(raw))
				Expect(rpcCode(err)).To(Equal(codeInvalidParams))
			}
			_, searches := api.calls()
			Expect(searches).To(BeZero())
		})

		It("renders not-found errors as a flagged result", func() {
			api.err = &twitter.HTTPError{Status: "404 Not Found", StatusCode: http.StatusNotFound}
			res, err := dispatcher.CallTool(ctx, "search_tweets", json.RawMessage(`{"query":"rust","count":10}`))
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeTrue())
			Expect(resultText(res)).To(Equal("Twitter API error: 404 Not Found"))
		})
	})

	It("answers unknown tools with method not found", func() {
		res, err := dispatcher.CallTool(ctx, "delete_tweet", json.RawMessage(`{"id":"1"}`))
		Expect(res).To(BeNil())
		Expect(rpcCode(err)).To(Equal(codeMethodNotFound))
		Expect(err.Error()).To(ContainSubstring("Unknown tool: delete_tweet"))
	})
})

var _ = Describe("MCP server", func() {
	var (
		ctx     context.Context
		api     *stubAPI
		session *mcp.ClientSession
	)

	BeforeEach(func() {
		ctx = context.Background()
		api = &stubAPI{}
		limiter := NewRateLimitTracker(testIntervals(), newFakeClock().Now)
		server := NewServer(NewDispatcher(NewTwitterClient(api, limiter), nil))

		serverTransport, clientTransport := mcp.NewInMemoryTransports()
		serverSession, err := server.Connect(ctx, serverTransport, nil)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { _ = serverSession.Close() })

		client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
		session, err = client.Connect(ctx, clientTransport, nil)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { _ = session.Close() })
	})

	It("advertises both tools", func() {
		res, err := session.ListTools(ctx, nil)
		Expect(err).NotTo(HaveOccurred())
		var names []string
		for _, t := range res.Tools {
			names = append(names, t.Name)
		}
		Expect(names).To(ConsistOf("post_tweet", "search_tweets"))
	})

	It("posts a tweet end to end", func() {
		api.createResp = postedResponse("123", "hello")
		res, err := session.CallTool(ctx, &mcp.CallToolParams{Name: "post_tweet", Arguments: map[string]any{"text": "hello"}})
		Expect(err).NotTo(HaveOccurred())
		Expect(resultText(res)).To(ContainSubstring("status/123"))
	})

	It("returns a flagged result rather than failing on rate limits", func() {
		api.err = &twitter.ErrorResponse{StatusCode: http.StatusTooManyRequests, Title: "Too Many Requests"}
		res, err := session.CallTool(ctx, &mcp.CallToolParams{Name: "search_tweets", Arguments: map[string]any{"query": "rust", "count": 10}})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.IsError).To(BeTrue())
		Expect(resultText(res)).To(Equal(rateLimitMessage))
	})

	It("fails the call for unknown tools", func() {
		_, err := session.CallTool(ctx, &mcp.CallToolParams{Name: "delete_tweet", Arguments: map[string]any{}})
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("Unknown tool: delete_tweet"))
	})
})
