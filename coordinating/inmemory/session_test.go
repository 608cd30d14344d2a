package inmemory_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/paust-team/zkwatch/coordinating"
	"github.com/paust-team/zkwatch/coordinating/inmemory"
	"github.com/paust-team/zkwatch/qerror"
)

var _ = Describe("Session", func() {
	var session *inmemory.Session
	testBasePath := "/coordinator-test"

	BeforeEach(func() {
		session = inmemory.NewSession()
		_, err := session.Create(testBasePath, []byte{}, coordinating.Persistent, nil)
		Expect(err).NotTo(HaveOccurred())
	})
	AfterEach(func() {
		session.Close()
	})

	Describe("Creating a node", func() {
		testPath := testBasePath + "/node"

		It("should be readable with version 0", func() {
			created, err := session.Create(testPath, []byte("a"), coordinating.Persistent, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(created).To(Equal(testPath))

			data, stat, err := session.Get(testPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(Equal([]byte("a")))
			Expect(stat.Version).To(BeEquivalentTo(0))
			Expect(stat.DataLength).To(BeEquivalentTo(1))
		})
		It("should fail when the node already exists", func() {
			_, err := session.Create(testPath, nil, coordinating.Persistent, nil)
			Expect(err).NotTo(HaveOccurred())
			_, err = session.Create(testPath, nil, coordinating.Persistent, nil)
			Expect(qerror.IsNodeExists(err)).To(BeTrue())
		})
		It("should fail when the parent is missing", func() {
			_, err := session.Create("/missing/child", nil, coordinating.Persistent, nil)
			Expect(qerror.IsNoNode(err)).To(BeTrue())
		})
		It("should append a counter to sequential nodes", func() {
			first, err := session.Create(testPath+"-", nil, coordinating.PersistentSequential, nil)
			Expect(err).NotTo(HaveOccurred())
			second, err := session.Create(testPath+"-", nil, coordinating.EphemeralSequential, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(first).To(Equal(testPath + "-0000000000"))
			Expect(second).To(Equal(testPath + "-0000000001"))

			_, stat, err := session.Get(second)
			Expect(err).NotTo(HaveOccurred())
			Expect(stat.EphemeralOwner).NotTo(BeZero())
		})
	})

	Describe("Setting data", func() {
		testPath := testBasePath + "/set"

		BeforeEach(func() {
			_, err := session.Create(testPath, nil, coordinating.Persistent, nil)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should increase the version", func() {
			stat, err := session.Set(testPath, []byte("b"), 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(stat.Version).To(BeEquivalentTo(1))
		})
		It("should reject a stale version", func() {
			_, err := session.Set(testPath, []byte("b"), 5)
			Expect(qerror.IsBadVersion(err)).To(BeTrue())
		})
		It("should fail on a missing node", func() {
			_, err := session.Set(testPath+"-missing", []byte("b"), coordinating.AnyVersion)
			Expect(qerror.IsNoNode(err)).To(BeTrue())
		})
	})

	Describe("Watching a node", func() {
		testPath := testBasePath + "/watch"

		It("should fire NodeCreated on an exists watch", func() {
			exists, _, watchCh, err := session.ExistsW(testPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(exists).To(BeFalse())

			_, err = session.Create(testPath, nil, coordinating.Persistent, nil)
			Expect(err).NotTo(HaveOccurred())
			Eventually(watchCh).Should(Receive(Equal(coordinating.WatchEvent{Type: coordinating.EventNodeCreated, Path: testPath})))
			Eventually(watchCh).Should(BeClosed())
		})
		It("should fire NodeDataChanged once on a data watch", func() {
			_, err := session.Create(testPath, nil, coordinating.Persistent, nil)
			Expect(err).NotTo(HaveOccurred())
			_, _, watchCh, err := session.GetW(testPath)
			Expect(err).NotTo(HaveOccurred())

			_, err = session.Set(testPath, []byte("1"), coordinating.AnyVersion)
			Expect(err).NotTo(HaveOccurred())
			_, err = session.Set(testPath, []byte("2"), coordinating.AnyVersion)
			Expect(err).NotTo(HaveOccurred())

			var event coordinating.WatchEvent
			Eventually(watchCh).Should(Receive(&event))
			Expect(event.Type).To(Equal(coordinating.EventNodeDataChanged))
			Eventually(watchCh).Should(BeClosed())
		})
		It("should fire NodeDeleted on data and child watches", func() {
			_, err := session.Create(testPath, nil, coordinating.Persistent, nil)
			Expect(err).NotTo(HaveOccurred())
			_, _, dataCh, err := session.GetW(testPath)
			Expect(err).NotTo(HaveOccurred())
			_, _, childCh, err := session.ChildrenW(testPath)
			Expect(err).NotTo(HaveOccurred())
			_, _, parentCh, err := session.ChildrenW(testBasePath)
			Expect(err).NotTo(HaveOccurred())

			Expect(session.Delete(testPath, coordinating.AnyVersion)).To(Succeed())
			Eventually(dataCh).Should(Receive(HaveField("Type", coordinating.EventNodeDeleted)))
			Eventually(childCh).Should(Receive(HaveField("Type", coordinating.EventNodeDeleted)))
			Eventually(parentCh).Should(Receive(HaveField("Type", coordinating.EventNodeChildrenChanged)))
		})
		It("should release watches with NotWatching on close", func() {
			_, _, watchCh, err := session.ExistsW(testPath)
			Expect(err).NotTo(HaveOccurred())
			session.Close()
			Eventually(watchCh).Should(Receive(HaveField("Type", coordinating.EventNotWatching)))

			_, err = session.GetConnection(context.Background())
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Listing children", func() {
		It("should return sorted child names", func() {
			for _, name := range []string{"c", "a", "b"} {
				_, err := session.Create(testBasePath+"/"+name, nil, coordinating.Persistent, nil)
				Expect(err).NotTo(HaveOccurred())
			}
			children, stat, err := session.Children(testBasePath)
			Expect(err).NotTo(HaveOccurred())
			Expect(children).To(Equal([]string{"a", "b", "c"}))
			Expect(stat.NumChildren).To(BeEquivalentTo(3))
		})
		It("should refuse to delete a node with children", func() {
			_, err := session.Create(testBasePath+"/a", nil, coordinating.Persistent, nil)
			Expect(err).NotTo(HaveOccurred())
			err = session.Delete(testBasePath, coordinating.AnyVersion)
			Expect(err).To(MatchError(qerror.CoordNotEmptyError{Path: testBasePath}))
		})
	})

	Describe("Injecting errors", func() {
		It("should fail the next call only and record it", func() {
			injected := errors.New("connection loss")
			session.InjectError(inmemory.OpGet, injected)

			_, _, err := session.Get(testBasePath)
			Expect(err).To(MatchError(injected))
			_, _, err = session.Get(testBasePath)
			Expect(err).NotTo(HaveOccurred())
			Expect(session.CountCalls(inmemory.OpGet, testBasePath)).To(Equal(2))
		})
	})
})
