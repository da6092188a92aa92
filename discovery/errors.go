// Copyright 2026 The Khampha Authors
// SPDX-License-Identifier: Apache-2.0

package discovery

import (
	"errors"
	"fmt"
)

// User facing messages.
const (
	MsgEmptyQuery     = "Vui lòng nhập tên địa điểm"
	MsgNotFound       = "Không tìm thấy địa điểm. Vui lòng thử lại với tên khác."
	MsgOutOfScope     = "Chỉ tìm kiếm địa điểm trong Việt Nam. Vui lòng thử lại."
	MsgEmptyResult    = "Không tìm thấy điểm tham quan trong khu vực này. Vui lòng thử tỉnh/thành phố khác."
	MsgSearchFailed   = "Đã xảy ra lỗi khi tìm kiếm. Vui lòng thử lại."
	MsgNoMore         = "Không tìm thấy thêm điểm tham quan nào trong khu vực này."
	MsgLoadMoreFailed = "Đã xảy ra lỗi khi tải thêm địa điểm."
)

func partialMessage(n int) string {
	return fmt.Sprintf("Tìm thấy %d điểm tham quan trong khu vực này.", n)
}

func moreMessage(added, total int) string {
	return fmt.Sprintf("Đã thêm %d điểm tham quan mới. Tổng: %d địa điểm.", added, total)
}

// Kind classifies a SearchError.
type Kind int

const (
	// KindUserInput the query was rejected before any network call.
	KindUserInput Kind = iota + 1
	// KindNotFound the geocoder found nothing, or something outside Vietnam.
	KindNotFound
	// KindProvider a provider call that the session cannot do without failed.
	KindProvider
	// KindEmptyResult every tier ran and none admitted a POI.
	KindEmptyResult
)

func (k Kind) String() string {
	switch k {
	case KindUserInput:
		return "user_input"
	case KindNotFound:
		return "not_found"
	case KindProvider:
		return "provider"
	case KindEmptyResult:
		return "empty_result"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// SearchError is a terminal search outcome. Message is meant for end users.
type SearchError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *SearchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}

	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *SearchError) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a SearchError of kind k.
func IsKind(err error, k Kind) bool {
	var sErr *SearchError
	if errors.As(err, &sErr) {
		return sErr.Kind == k
	}

	return false
}

// UserMessage returns the end user message carried by err, or the generic
// failure message.
func UserMessage(err error) string {
	var sErr *SearchError
	if errors.As(err, &sErr) && sErr.Message != "" {
		return sErr.Message
	}

	return MsgSearchFailed
}
