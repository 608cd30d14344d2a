package operation_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/paust-team/zkwatch/config"
	"github.com/paust-team/zkwatch/coordinating"
	"github.com/paust-team/zkwatch/coordinating/inmemory"
	"github.com/paust-team/zkwatch/operation"
	"github.com/paust-team/zkwatch/qerror"
)

type runResult struct {
	result *operation.Result
	err    error
}

func runAsync(ctx context.Context, op *operation.Operation, session coordinating.Session) <-chan runResult {
	resultCh := make(chan runResult, 1)
	go func() {
		result, err := op.Run(ctx, session)
		resultCh <- runResult{result, err}
	}()
	return resultCh
}

var _ = Describe("Operation", func() {
	var session *inmemory.Session
	var ctx context.Context
	var cancel context.CancelFunc
	testPath := "/operation-test"

	BeforeEach(func() {
		session = inmemory.NewSession()
		ctx, cancel = context.WithCancel(context.Background())
	})
	AfterEach(func() {
		cancel()
		session.Close()
	})

	Context("when the node exists", func() {
		BeforeEach(func() {
			_, err := session.Create(testPath, []byte("hello"), coordinating.Persistent, nil)
			Expect(err).NotTo(HaveOccurred())
			_, err = session.Create(testPath+"/b", nil, coordinating.Persistent, nil)
			Expect(err).NotTo(HaveOccurred())
			_, err = session.Create(testPath+"/a", nil, coordinating.Persistent, nil)
			Expect(err).NotTo(HaveOccurred())
		})

		It("Exists succeeds with the stat", func() {
			result, err := (&operation.Operation{Kind: operation.Exists, Path: testPath}).Run(ctx, session)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.OK()).To(BeTrue())
			Expect(result.Stat).NotTo(BeNil())
		})

		It("FetchData returns data and stat", func() {
			op := &operation.Operation{Kind: operation.FetchData, Path: testPath}
			result, err := op.Run(ctx, session)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Data).To(Equal([]byte("hello")))
			Expect(result.Stat.DataLength).To(BeEquivalentTo(5))
			Expect(op.ShouldProduceMessage(result)).To(BeTrue())
		})

		It("FetchChildren returns the sorted listing", func() {
			op := &operation.Operation{Kind: operation.FetchChildren, Path: testPath}
			result, err := op.Run(ctx, session)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Children).To(Equal([]string{"a", "b"}))
			Expect(op.ShouldProduceMessage(result)).To(BeTrue())
		})

		It("WatchData returns on the next data change", func() {
			op := &operation.Operation{Kind: operation.WatchData, Path: testPath, SendEmptyMessageOnDelete: true}
			resultCh := runAsync(ctx, op, session)
			Consistently(resultCh, 50*time.Millisecond).ShouldNot(Receive())

			_, err := session.Set(testPath, []byte("changed"), coordinating.AnyVersion)
			Expect(err).NotTo(HaveOccurred())

			var received runResult
			Eventually(resultCh).Should(Receive(&received))
			Expect(received.err).NotTo(HaveOccurred())
			Expect(received.result.Event.Type).To(Equal(coordinating.EventNodeDataChanged))
			Expect(op.ShouldProduceMessage(received.result)).To(BeFalse())
		})

		It("WatchData produces a message on deletion only when asked to", func() {
			withFlag := &operation.Operation{Kind: operation.WatchData, Path: testPath, SendEmptyMessageOnDelete: true}
			withoutFlag := &operation.Operation{Kind: operation.WatchData, Path: testPath}
			withFlagCh := runAsync(ctx, withFlag, session)
			withoutFlagCh := runAsync(ctx, withoutFlag, session)
			Eventually(func() int { return session.CountCalls(inmemory.OpGet, testPath) }).Should(Equal(2))

			Expect(session.Delete(testPath+"/a", coordinating.AnyVersion)).To(Succeed())
			Expect(session.Delete(testPath+"/b", coordinating.AnyVersion)).To(Succeed())
			Expect(session.Delete(testPath, coordinating.AnyVersion)).To(Succeed())

			var received runResult
			Eventually(withFlagCh).Should(Receive(&received))
			Expect(received.err).NotTo(HaveOccurred())
			Expect(received.result.Event.Type).To(Equal(coordinating.EventNodeDeleted))
			Expect(withFlag.ShouldProduceMessage(received.result)).To(BeTrue())

			Eventually(withoutFlagCh).Should(Receive(&received))
			Expect(withoutFlag.ShouldProduceMessage(received.result)).To(BeFalse())
		})

		It("WatchChildren returns on a membership change", func() {
			resultCh := runAsync(ctx, &operation.Operation{Kind: operation.WatchChildren, Path: testPath}, session)
			Eventually(func() int { return session.CountCalls(inmemory.OpChildren, testPath) }).Should(Equal(1))

			_, err := session.Create(testPath+"/c", nil, coordinating.Persistent, nil)
			Expect(err).NotTo(HaveOccurred())

			var received runResult
			Eventually(resultCh).Should(Receive(&received))
			Expect(received.err).NotTo(HaveOccurred())
			Expect(received.result.Event.Type).To(Equal(coordinating.EventNodeChildrenChanged))
		})

		It("AnyOf returns the first successful alternative", func() {
			op := &operation.Operation{Kind: operation.AnyOf, Path: testPath, Alternatives: []*operation.Operation{
				{Kind: operation.Exists, Path: testPath},
				{Kind: operation.ExistsOrChanged, Path: testPath},
			}}
			result, err := op.Run(ctx, session)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.OK()).To(BeTrue())
			Expect(session.CountCalls(inmemory.OpExists, testPath)).To(Equal(1))
		})
	})

	Context("when the node is missing", func() {
		It("Exists yields a failure result", func() {
			op := &operation.Operation{Kind: operation.Exists, Path: testPath}
			result, err := op.Run(ctx, session)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.OK()).To(BeFalse())
			Expect(qerror.IsNoNode(result.Err)).To(BeTrue())
			Expect(op.ShouldProduceMessage(result)).To(BeFalse())
		})

		It("FetchData yields a failure result that is still produced", func() {
			op := &operation.Operation{Kind: operation.FetchData, Path: testPath}
			result, err := op.Run(ctx, session)
			Expect(err).NotTo(HaveOccurred())
			Expect(qerror.IsNoNode(result.Err)).To(BeTrue())
			Expect(op.ShouldProduceMessage(result)).To(BeTrue())
		})

		It("ExistsOrChanged waits for the node to be created", func() {
			resultCh := runAsync(ctx, &operation.Operation{Kind: operation.ExistsOrChanged, Path: testPath}, session)
			Consistently(resultCh, 50*time.Millisecond).ShouldNot(Receive())

			_, err := session.Create(testPath, nil, coordinating.Persistent, nil)
			Expect(err).NotTo(HaveOccurred())

			var received runResult
			Eventually(resultCh).Should(Receive(&received))
			Expect(received.err).NotTo(HaveOccurred())
			Expect(received.result.Event.Type).To(Equal(coordinating.EventNodeCreated))
		})

		It("WatchData reports a deletion without waiting", func() {
			op := &operation.Operation{Kind: operation.WatchData, Path: testPath, SendEmptyMessageOnDelete: true}
			result, err := op.Run(ctx, session)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Event.Type).To(Equal(coordinating.EventNodeDeleted))
		})
	})

	It("returns unexpected errors instead of failure results", func() {
		session.InjectError(inmemory.OpGet, errors.New("connection loss"))
		result, err := (&operation.Operation{Kind: operation.FetchData, Path: testPath}).Run(ctx, session)
		Expect(err).To(HaveOccurred())
		Expect(result).To(BeNil())
	})

	It("stops waiting when the context is cancelled", func() {
		resultCh := runAsync(ctx, &operation.Operation{Kind: operation.ExistsOrChanged, Path: testPath}, session)
		Eventually(func() int { return session.CountCalls(inmemory.OpExists, testPath) }).Should(Equal(1))
		cancel()

		var received runResult
		Eventually(resultCh).Should(Receive(&received))
		Expect(received.err).To(MatchError(context.Canceled))
	})

	It("reports a lost watch as an error", func() {
		resultCh := runAsync(ctx, &operation.Operation{Kind: operation.ExistsOrChanged, Path: testPath}, session)
		Eventually(func() int { return session.CountCalls(inmemory.OpExists, testPath) }).Should(Equal(1))
		session.Close()

		var received runResult
		Eventually(resultCh).Should(Receive(&received))
		Expect(received.err).To(BeAssignableToTypeOf(qerror.CoordWatchError{}))
	})

	It("rejects unknown kinds", func() {
		_, err := (&operation.Operation{Kind: operation.Kind(99), Path: testPath}).Run(ctx, session)
		code, ok := qerror.CodeOf(err)
		Expect(ok).To(BeTrue())
		Expect(code).To(Equal(qerror.ErrInvalidOperation))
	})
})

var _ = Describe("Sequence", func() {
	It("builds the data watch cycle", func() {
		factory := operation.NewFactory(config.NodeConfiguration{Path: "/a", SendEmptyMessageOnDelete: true})
		sequence := factory(3)
		Expect(sequence).To(HaveLen(3))
		Expect(sequence[0].Kind).To(Equal(operation.AnyOf))
		Expect(sequence[0].Alternatives[0].Kind).To(Equal(operation.Exists))
		Expect(sequence[0].Alternatives[1].Kind).To(Equal(operation.ExistsOrChanged))
		Expect(sequence[1].Kind).To(Equal(operation.FetchData))
		Expect(sequence[2].Kind).To(Equal(operation.WatchData))
		Expect(sequence[2].Terminal).To(BeTrue())
		Expect(sequence[2].SendEmptyMessageOnDelete).To(BeTrue())
		for _, op := range sequence {
			Expect(op.Cycle).To(BeEquivalentTo(3))
		}
	})

	It("builds the children watch cycle", func() {
		sequence := operation.NewFactory(config.NodeConfiguration{Path: "/a", ListChildren: true})(0)
		Expect(sequence[1].Kind).To(Equal(operation.FetchChildren))
		Expect(sequence[2].Kind).To(Equal(operation.WatchChildren))
		Expect(sequence[2].Terminal).To(BeTrue())
	})

	It("returns fresh operations on every call", func() {
		factory := operation.DataWatchSequence("/a", false)
		first, second := factory(0), factory(1)
		for i := range first {
			Expect(first[i]).NotTo(BeIdenticalTo(second[i]))
		}
	})
})
