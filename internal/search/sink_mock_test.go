package search_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"

	"github.com/agbru/narrowfind/internal/search"
	"github.com/agbru/narrowfind/internal/search/mocks"
)

func TestRun_SinkCallOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := mocks.NewMockSink(ctrl)

	gomock.InOrder(
		sink.EXPECT().Reset().Times(1),
		sink.EXPECT().Print("Expression: F(x) = 0. F is 4 + e^x + 2x"),
		sink.EXPECT().Print(gomock.Any()).Do(func(line string) {
			if !strings.HasPrefix(line, "[") && !strings.HasPrefix(line, "Result: ") {
				t.Errorf("unexpected line %q", line)
			}
		}).MinTimes(2),
	)

	if _, err := search.Run(context.Background(), search.Params{GroupPos: 4, A: -5, B: 5, Tolerance: 0.01}, sink); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
}

func TestRun_InvalidInputLeavesSinkUntouched(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := mocks.NewMockSink(ctrl)
	// No expectations: any call fails the test.

	_, err := search.Run(context.Background(), search.Params{GroupPos: 4, A: 0, B: 1, Tolerance: -0.5}, sink)
	if !errors.Is(err, search.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}
