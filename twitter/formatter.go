package main

import (
	"fmt"
	"strings"
)

const unknownAuthor = "unknown"

// FormattedTweet is one rendered search hit.
type FormattedTweet struct {
	Position  int
	Author    string
	Text      string
	Likes     int
	Retweets  int
	CreatedAt string
}

// SearchResponse is the structured form of a search reply.
type SearchResponse struct {
	Query  string
	Count  int
	Tweets []FormattedTweet
}

// FormatSearchResponse joins tweets with their authors, keeping input order.
// Tweets whose author is not among users get the "unknown" placeholder.
func FormatSearchResponse(query string, tweets []Tweet, users []TweetUser) SearchResponse {
	byID := make(map[string]string, len(users))
	for _, u := range users {
		byID[u.ID] = u.Username
	}

	out := SearchResponse{Query: query, Count: len(tweets), Tweets: make([]FormattedTweet, 0, len(tweets))}
	for i, t := range tweets {
		author, ok := byID[t.AuthorID]
		if !ok || author == "" {
			author = unknownAuthor
		}
		out.Tweets = append(out.Tweets, FormattedTweet{
			Position:  i + 1,
			Author:    author,
			Text:      t.Text,
			Likes:     t.Metrics.Likes,
			Retweets:  t.Metrics.Retweets,
			CreatedAt: t.CreatedAt,
		})
	}
	return out
}

// ToMCPResponse renders a SearchResponse as the tool's text block.
func ToMCPResponse(r SearchResponse) string {
	var b strings.Builder
	noun := "tweets"
	if r.Count == 1 {
		noun = "tweet"
	}
	fmt.Fprintf(&b, "Search results for %q (%d %s)\n", r.Query, r.Count, noun)
	if len(r.Tweets) == 0 {
		b.WriteString("\nNo tweets found.")
		return b.String()
	}
	for _, t := range r.Tweets {
		fmt.Fprintf(&b, "\n%d. @%s: %s\n", t.Position, t.Author, t.Text)
		fmt.Fprintf(&b, "   Likes: %d | Retweets: %d\n", t.Likes, t.Retweets)
		createdAt := t.CreatedAt
		if createdAt == "" {
			createdAt = "unknown"
		}
		fmt.Fprintf(&b, "   Posted: %s\n", createdAt)
	}
	return strings.TrimRight(b.String(), "\n")
}
