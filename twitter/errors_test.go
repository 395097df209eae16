package main

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	twitter "github.com/g8rswimmer/go-twitter/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Error classification", func() {
	DescribeTable("classifies API error responses by status code",
		func(status int, kind ErrorKind) {
			err := &twitter.ErrorResponse{StatusCode: status, Title: "Problem", Detail: "detailed problem"}
			te := classifyError(EndpointSearch, err)
			Expect(te.Kind).To(Equal(kind))
			Expect(te.Message).To(Equal("detailed problem"))
			Expect(te.Endpoint).To(Equal(EndpointSearch))
		},
		Entry("429", http.StatusTooManyRequests, KindRateLimit),
		Entry("401", http.StatusUnauthorized, KindAuthentication),
		Entry("403", http.StatusForbidden, KindAuthentication),
		Entry("404", http.StatusNotFound, KindNotFound),
		Entry("400", http.StatusBadRequest, KindInvalidRequest),
		Entry("422", http.StatusUnprocessableEntity, KindInvalidRequest),
		Entry("503", http.StatusServiceUnavailable, KindUnknown),
	)

	It("classifies HTTP errors and keeps the reset instant", func() {
		reset := time.Date(2024, 5, 1, 12, 15, 0, 0, time.UTC)
		err := &twitter.HTTPError{
			Status:     "429 Too Many Requests",
			StatusCode: http.StatusTooManyRequests,
			RateLimit:  &twitter.RateLimit{Limit: 50, Remaining: 0, Reset: twitter.Epoch(reset.Unix())},
		}
		te := classifyError(EndpointCreatePost, err)
		Expect(te.Kind).To(Equal(KindRateLimit))
		Expect(te.ResetAt.Equal(reset)).To(BeTrue())
		Expect(te.Message).To(Equal("429 Too Many Requests"))
	})

	It("classifies by status, not by message text", func() {
		err := &twitter.ErrorResponse{StatusCode: http.StatusInternalServerError, Detail: "rate limit exceeded, not found, unauthorized"}
		Expect(classifyError(EndpointSearch, err).Kind).To(Equal(KindUnknown))
	})

	It("wraps unrecognised errors as unknown, keeping the cause", func() {
		cause := errors.New("connection reset by peer")
		te := classifyError(EndpointSearch, fmt.Errorf("post: %w", cause))
		Expect(te.Kind).To(Equal(KindUnknown))
		Expect(te.Message).To(Equal("post: connection reset by peer"))
		Expect(errors.Is(te, cause)).To(BeTrue())
	})

	It("passes already classified errors through", func() {
		local := newRateLimitExceeded(EndpointSearch, time.Time{})
		Expect(classifyError(EndpointSearch, local)).To(BeIdenticalTo(local))
	})

	It("names every kind", func() {
		Expect(KindRateLimitExceeded.String()).To(Equal("rate_limit_exceeded"))
		Expect(KindRateLimit.String()).To(Equal("rate_limit"))
		Expect(KindAuthentication.String()).To(Equal("authentication"))
		Expect(KindNotFound.String()).To(Equal("not_found"))
		Expect(KindInvalidRequest.String()).To(Equal("invalid_request"))
		Expect(KindUnknown.String()).To(Equal("unknown"))
	})
})
