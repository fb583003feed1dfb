package session

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/rkode/internal/ode"
)

// counter yields 0, 1, 2, ... up to end, or forever when end is negative.
type counter struct {
	n, end int
	pulls  int
}

func (c *counter) Next() (int, bool) {
	c.pulls++
	if c.end >= 0 && c.n >= c.end {
		return 0, false
	}
	c.n++
	return c.n - 1, true
}

func drain(l *Limited[int]) []int {
	var out []int
	for {
		v, ok := l.Next()
		if !ok {
			return out
		}
		out = append(out, v)
	}
}

var _ = Describe("Limit", func() {
	It("rejects limits below one", func() {
		_, err := Limit[int](&counter{end: -1}, 0, nil)
		Expect(errors.Is(err, ode.ErrInvalidOptions)).To(BeTrue())
	})

	It("caps an unbounded sequence and calls back exactly once", func() {
		calls := 0
		sentinel := errors.New("capped")
		l, err := Limit[int](&counter{end: -1}, 5, func(pending, delivered int, _ Sequence[int]) error {
			calls++
			Expect(pending).To(Equal(5))
			Expect(delivered).To(Equal(5))
			return sentinel
		})
		Expect(err).NotTo(HaveOccurred())

		Expect(drain(l)).To(Equal([]int{0, 1, 2, 3, 4}))
		Expect(calls).To(Equal(1))
		Expect(l.Truncated()).To(BeTrue())
		Expect(l.Err()).To(MatchError(sentinel))
		Expect(l.Delivered()).To(Equal(5))

		_, ok := l.Next()
		Expect(ok).To(BeFalse())
		Expect(calls).To(Equal(1))
	})

	It("passes the source to the callback", func() {
		var next int
		l, _ := Limit[int](&counter{end: -1}, 2, func(pending, _ int, src Sequence[int]) error {
			next, _ = src.Next()
			return nil
		})
		Expect(drain(l)).To(Equal([]int{0, 1}))
		Expect(next).To(Equal(3))
	})

	It("stops drawing from the source once capped", func() {
		src := &counter{end: -1}
		l, _ := Limit[int](src, 2, nil)
		drain(l)
		pulls := src.pulls
		l.Next()
		l.Next()
		Expect(src.pulls).To(Equal(pulls))
	})

	It("completes naturally when the source is shorter", func() {
		called := false
		l, _ := Limit[int](&counter{end: 3}, 10, func(int, int, Sequence[int]) error {
			called = true
			return nil
		})
		Expect(drain(l)).To(Equal([]int{0, 1, 2}))
		Expect(called).To(BeFalse())
		Expect(l.Truncated()).To(BeFalse())
		Expect(l.Err()).NotTo(HaveOccurred())
	})

	It("treats a source of exactly limit elements as complete", func() {
		called := false
		l, _ := Limit[int](&counter{end: 4}, 4, func(int, int, Sequence[int]) error {
			called = true
			return nil
		})
		Expect(drain(l)).To(HaveLen(4))
		Expect(called).To(BeFalse())
		Expect(l.Truncated()).To(BeFalse())
	})
})
