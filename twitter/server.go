package main

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	serverName    = "twitter-mcp"
	serverVersion = "v0.1.0"

	rateLimitMessage = "Rate limit exceeded. Please wait a moment before trying again."
	statusURLPrefix  = "https://twitter.com/status/"
)

// Outcome labels for tool call metrics.
const (
	outcomeOK            = "ok"
	outcomeDomainError   = "domain_error"
	outcomeProtocolError = "protocol_error"
)

type toolHandler func(ctx context.Context, raw json.RawMessage) (*mcp.CallToolResult, error)

type toolEntry struct {
	tool    *mcp.Tool
	handler toolHandler
}

// Dispatcher owns the tool catalog and turns every outcome of a call into
// either a CallToolResult or a JSON-RPC error.
type Dispatcher struct {
	client  *TwitterClient
	metrics *Metrics
	tools   map[string]toolEntry
	order   []string
}

func NewDispatcher(client *TwitterClient, metrics *Metrics) *Dispatcher {
	d := &Dispatcher{
		client:  client,
		metrics: metrics,
		tools:   map[string]toolEntry{},
	}
	d.add(&mcp.Tool{
		Name:        "post_tweet",
		Description: "Post a new tweet to Twitter",
		InputSchema: postTweetShape.JSONSchema(),
	}, d.handlePostTweet)
	d.add(&mcp.Tool{
		Name:        "search_tweets",
		Description: "Search for tweets on Twitter",
		InputSchema: searchTweetsShape.JSONSchema(),
	}, d.handleSearchTweets)
	return d
}

func (d *Dispatcher) add(tool *mcp.Tool, h toolHandler) {
	d.tools[tool.Name] = toolEntry{tool: tool, handler: h}
	d.order = append(d.order, tool.Name)
}

// Tools returns the tool descriptors in registration order.
func (d *Dispatcher) Tools() []*mcp.Tool {
	out := make([]*mcp.Tool, 0, len(d.order))
	for _, name := range d.order {
		out = append(out, d.tools[name].tool)
	}
	return out
}

// CallTool routes a call by name. Domain errors come back as an IsError
// result; protocol errors come back as *jsonrpc.Error.
func (d *Dispatcher) CallTool(ctx context.Context, name string, raw json.RawMessage) (*mcp.CallToolResult, error) {
	callID := uuid.NewString()
	debugLogf("[%s] Executing tool: %s %s", callID, name, string(raw))

	entry, ok := d.tools[name]
	if !ok {
		d.metrics.observeCall("unknown", outcomeProtocolError)
		return nil, protocolError(codeMethodNotFound, "Unknown tool: %s", name)
	}

	res, err := entry.handler(ctx, raw)
	if err != nil {
		res, err = d.handleError(callID, name, err)
	}
	switch {
	case err != nil:
		d.metrics.observeCall(name, outcomeProtocolError)
	case res.IsError:
		d.metrics.observeCall(name, outcomeDomainError)
	default:
		d.metrics.observeCall(name, outcomeOK)
	}
	return res, err
}

func (d *Dispatcher) handlePostTweet(ctx context.Context, raw json.RawMessage) (*mcp.CallToolResult, error) {
	args, err := parsePostTweetArgs(raw)
	if err != nil {
		return nil, err
	}
	tweet, err := d.client.PostTweet(ctx, args.Text)
	if err != nil {
		return nil, err
	}
	return textResult("Tweet posted successfully!\nURL: " + statusURLPrefix + tweet.ID), nil
}

func (d *Dispatcher) handleSearchTweets(ctx context.Context, raw json.RawMessage) (*mcp.CallToolResult, error) {
	args, err := parseSearchTweetsArgs(raw)
	if err != nil {
		return nil, err
	}
	result, err := d.client.SearchTweets(ctx, args.Query, args.Count)
	if err != nil {
		return nil, err
	}
	formatted := FormatSearchResponse(args.Query, result.Tweets, result.Users)
	return textResult(ToMCPResponse(formatted)), nil
}

func (d *Dispatcher) handleError(callID, tool string, err error) (*mcp.CallToolResult, error) {
	var rpcErr *jsonrpc.Error
	if errors.As(err, &rpcErr) {
		return nil, rpcErr
	}

	var verr *ValidationError
	if errors.As(err, &verr) {
		return nil, protocolError(codeInvalidParams, "Invalid parameters: %s", verr.Error())
	}

	var te *TwitterError
	if errors.As(err, &te) {
		debugLogf("[%s] %s failed: %s: %v", callID, tool, te.Kind, te)
		switch te.Kind {
		case KindRateLimit, KindRateLimitExceeded:
			return errorResult(rateLimitMessage), nil
		case KindAuthentication, KindNotFound, KindInvalidRequest, KindUnknown:
			return errorResult("Twitter API error: " + te.Message), nil
		}
	}

	operatorf("[%s] unexpected error in %s: %v", callID, tool, err)
	return nil, protocolError(codeInternalError, "An unexpected error occurred")
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}, IsError: true}
}

// Register adds the catalog to server. Calls naming a tool outside the
// catalog are answered with method-not-found before the SDK's own lookup.
func (d *Dispatcher) Register(server *mcp.Server) {
	for _, name := range d.order {
		server.AddTool(d.tools[name].tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return d.CallTool(ctx, req.Params.Name, req.Params.Arguments)
		})
	}
	server.AddReceivingMiddleware(d.unknownToolMiddleware)
}

func (d *Dispatcher) unknownToolMiddleware(next mcp.MethodHandler) mcp.MethodHandler {
	return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
		if method == "tools/call" {
			if call, ok := req.(*mcp.CallToolRequest); ok && call.Params != nil {
				if _, known := d.tools[call.Params.Name]; !known {
					_, err := d.CallTool(ctx, call.Params.Name, call.Params.Arguments)
					return nil, err
				}
			}
		}
		return next(ctx, method, req)
	}
}

// NewServer builds the MCP server exposing the dispatcher's tools.
func NewServer(d *Dispatcher) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)
	d.Register(server)
	return server
}
