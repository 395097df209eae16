package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	twitter "github.com/g8rswimmer/go-twitter/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TweetAPI is the subset of *twitter.Client the server calls.
type TweetAPI interface {
	CreateTweet(ctx context.Context, tweet twitter.CreateTweetRequest) (*twitter.CreateTweetResponse, error)
	TweetRecentSearch(ctx context.Context, query string, opts twitter.TweetRecentSearchOpts) (*twitter.TweetRecentSearchResponse, error)
}

// errEmptyResponse is returned when the API reports success without a payload.
// The dispatcher reports it as an internal error.
var errEmptyResponse = errors.New("empty response from Twitter API")

// TwitterClient is the adapter between tool handlers and the API client.
type TwitterClient struct {
	api     TweetAPI
	limiter *RateLimitTracker
	tracer  trace.Tracer
	metrics *Metrics
}

// ClientOption configures a TwitterClient.
type ClientOption func(*TwitterClient)

// WithTracer overrides the tracer (defaults to the global provider).
func WithTracer(t trace.Tracer) ClientOption {
	return func(c *TwitterClient) { c.tracer = t }
}

// WithMetrics records API latency and remote rate limits.
func WithMetrics(m *Metrics) ClientOption {
	return func(c *TwitterClient) { c.metrics = m }
}

func NewTwitterClient(api TweetAPI, limiter *RateLimitTracker, opts ...ClientOption) *TwitterClient {
	c := &TwitterClient{
		api:     api,
		limiter: limiter,
		tracer:  otel.Tracer("github.com/mudler/twitter-mcp"),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// PostTweet publishes text as a new tweet.
func (c *TwitterClient) PostTweet(ctx context.Context, text string) (PostedTweet, error) {
	ctx, span := c.startSpan(ctx, "twitter.create_tweet", EndpointCreatePost)
	defer span.End()

	if err := c.limiter.Check(EndpointCreatePost); err != nil {
		return PostedTweet{}, c.fail(span, EndpointCreatePost, err)
	}

	start := time.Now()
	resp, err := c.api.CreateTweet(ctx, twitter.CreateTweetRequest{Text: text})
	c.metrics.observeAPI(EndpointCreatePost, start)
	if err != nil {
		return PostedTweet{}, c.fail(span, EndpointCreatePost, err)
	}
	if resp == nil || resp.Tweet == nil {
		span.RecordError(errEmptyResponse)
		span.SetStatus(codes.Error, errEmptyResponse.Error())
		return PostedTweet{}, fmt.Errorf("create tweet: %w", errEmptyResponse)
	}

	debugLogf("Tweet posted successfully with ID: %s", resp.Tweet.ID)
	span.SetAttributes(attribute.String("twitter.tweet_id", resp.Tweet.ID))
	return PostedTweet{ID: resp.Tweet.ID, Text: resp.Tweet.Text}, nil
}

// SearchTweets runs a recent search returning at most count tweets together
// with their authors.
func (c *TwitterClient) SearchTweets(ctx context.Context, query string, count int) (SearchResult, error) {
	ctx, span := c.startSpan(ctx, "twitter.search_recent", EndpointSearch)
	defer span.End()
	span.SetAttributes(attribute.Int("twitter.max_results", count))

	if err := c.limiter.Check(EndpointSearch); err != nil {
		return SearchResult{}, c.fail(span, EndpointSearch, err)
	}

	opts := twitter.TweetRecentSearchOpts{
		MaxResults:  count,
		TweetFields: []twitter.TweetField{twitter.TweetFieldCreatedAt, twitter.TweetFieldAuthorID, twitter.TweetFieldPublicMetrics},
		Expansions:  []twitter.Expansion{twitter.ExpansionAuthorID},
		UserFields:  []twitter.UserField{twitter.UserFieldUserName},
	}
	start := time.Now()
	resp, err := c.api.TweetRecentSearch(ctx, query, opts)
	c.metrics.observeAPI(EndpointSearch, start)
	if err != nil {
		return SearchResult{}, c.fail(span, EndpointSearch, err)
	}
	if resp == nil {
		span.RecordError(errEmptyResponse)
		span.SetStatus(codes.Error, errEmptyResponse.Error())
		return SearchResult{}, fmt.Errorf("search: %w", errEmptyResponse)
	}

	var result SearchResult
	if resp.Raw != nil {
		for _, t := range resp.Raw.Tweets {
			if t != nil {
				result.Tweets = append(result.Tweets, tweetFromObj(t))
			}
		}
		if resp.Raw.Includes != nil {
			for _, u := range resp.Raw.Includes.Users {
				if u != nil {
					result.Users = append(result.Users, TweetUser{ID: u.ID, Username: u.UserName})
				}
			}
		}
	}
	span.SetAttributes(attribute.Int("twitter.result_count", len(result.Tweets)))
	return result, nil
}

func tweetFromObj(t *twitter.TweetObj) Tweet {
	out := Tweet{
		ID:        t.ID,
		Text:      t.Text,
		AuthorID:  t.AuthorID,
		CreatedAt: t.CreatedAt,
	}
	if t.PublicMetrics != nil {
		out.Metrics = TweetMetrics{
			Likes:    t.PublicMetrics.Likes,
			Retweets: t.PublicMetrics.Retweets,
		}
	}
	return out
}

func (c *TwitterClient) startSpan(ctx context.Context, name, endpoint string) (context.Context, trace.Span) {
	return c.tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("twitter.endpoint", endpoint)))
}

// fail classifies err, feeds authoritative rate limits back into the tracker
// and marks the span.
func (c *TwitterClient) fail(span trace.Span, endpoint string, err error) error {
	te := classifyError(endpoint, err)
	if te.Kind == KindRateLimit {
		c.metrics.observeRemoteRateLimit(endpoint)
		c.limiter.Block(endpoint, te.ResetAt)
	}
	span.RecordError(te)
	span.SetStatus(codes.Error, te.Kind.String())
	span.SetAttributes(attribute.String("twitter.error_kind", te.Kind.String()))
	return te
}
