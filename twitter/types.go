package main

// Endpoint keys used for local rate-limit bookkeeping.
const (
	EndpointCreatePost = "create-post"
	EndpointSearch     = "search"
)

// PostTweetArgs is the validated input of post_tweet
type PostTweetArgs struct {
	Text string `json:"text"`
}

// SearchTweetsArgs is the validated input of search_tweets
type SearchTweetsArgs struct {
	Query string `json:"query"`
	Count int    `json:"count"`
}

// TweetUser is the author information attached to search results
type TweetUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// TweetMetrics holds the engagement counters of a tweet
type TweetMetrics struct {
	Likes    int `json:"likes"`
	Retweets int `json:"retweets"`
}

// Tweet is a single search hit
type Tweet struct {
	ID        string       `json:"id"`
	Text      string       `json:"text"`
	AuthorID  string       `json:"author_id"`
	Metrics   TweetMetrics `json:"metrics"`
	CreatedAt string       `json:"created_at"`
}

// PostedTweet is the confirmation returned after a successful post
type PostedTweet struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// SearchResult is an ordered list of tweets plus the users they reference
type SearchResult struct {
	Tweets []Tweet
	Users  []TweetUser
}
