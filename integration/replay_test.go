package integration

import (
	"bufio"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/opspilot/agui/pkg/agui"
	"github.com/opspilot/agui/pkg/assembler"
	"github.com/opspilot/agui/pkg/history"
	"github.com/opspilot/agui/pkg/message"
)

// replayTranscript feeds every record of a recorded SSE transcript through a
// fresh assembler and returns it alongside the count of dropped frames.
func replayTranscript(name string, opts ...assembler.Option) (*assembler.Assembler, int) {
	path := filepath.Join("..", "testdata", "transcripts", name)
	file, err := os.Open(path)
	Expect(err).NotTo(HaveOccurred())
	defer file.Close()

	asm := assembler.New(opts...)
	dropped := 0

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		payload, ok := agui.StripDataPrefix(scanner.Text())
		if !ok {
			continue
		}
		if _, err := asm.Feed([]byte(payload)); err != nil {
			dropped++
		}
	}
	Expect(scanner.Err()).NotTo(HaveOccurred())

	return asm, dropped
}

var _ = Describe("Transcript replay", func() {
	Describe("hello transcript", func() {
		It("assembles a single settled text message", func() {
			asm, dropped := replayTranscript("hello.sse")
			Expect(dropped).To(BeZero())

			messages := asm.Messages()
			Expect(messages).To(HaveLen(1))

			m := messages[0]
			Expect(m.ID).To(Equal("msg_r-1_1"))
			Expect(m.Role).To(Equal("assistant"))
			Expect(m.Status).To(Equal(message.StatusSettledSuccess))
			Expect(m.Text()).To(Equal("Hello"))
			Expect(m.Parts).To(HaveLen(1))
			Expect(m.Parts[0].Open).To(BeFalse())
		})
	})

	Describe("tool call transcript", func() {
		var m *message.Message

		BeforeEach(func() {
			asm, dropped := replayTranscript("tool_call.sse")
			Expect(dropped).To(BeZero())

			var ok bool
			m, ok = asm.Message("msg_r-2_1")
			Expect(ok).To(BeTrue())
		})

		It("captures the thinking channel", func() {
			Expect(m.Thinking).To(Equal("Need to query the index first. Then summarize."))
		})

		It("completes the tool call with accumulated args and the attached result", func() {
			Expect(m.ToolCalls).To(HaveLen(1))

			call := m.ToolCalls[0]
			Expect(call.ID).To(Equal("call_1"))
			Expect(call.Name).To(Equal("search"))
			Expect(call.Args).To(Equal(`{"q":"cpu usage"}`))
			Expect(call.Status).To(Equal(message.ToolCompleted))
			Expect(call.HasResult).To(BeTrue())
			Expect(call.Result).To(Equal("3 hosts above threshold"))
		})

		It("interleaves the tool reference between the two text spans", func() {
			Expect(m.Parts).To(HaveLen(3))
			Expect(m.Parts[0].Kind).To(Equal(message.PartText))
			Expect(m.Parts[0].Text).To(Equal("Let me search. "))
			Expect(m.Parts[1].Kind).To(Equal(message.PartToolCallRef))
			Expect(m.Parts[1].ToolCallID).To(Equal("call_1"))
			Expect(m.Parts[2].Kind).To(Equal(message.PartText))
			Expect(m.Parts[2].Text).To(Equal("Three hosts are hot."))
		})

		It("settles the message as success", func() {
			Expect(m.Status).To(Equal(message.StatusSettledSuccess))
		})
	})

	Describe("mixed transcript", func() {
		It("keeps the component between the surrounding text spans", func() {
			asm, dropped := replayTranscript("mixed.sse")
			Expect(dropped).To(BeZero())

			m, ok := asm.Message("msg_r-3_1")
			Expect(ok).To(BeTrue())
			Expect(m.Status).To(Equal(message.StatusSettledSuccess))

			Expect(m.Parts).To(HaveLen(3))
			Expect(m.Parts[0].Kind).To(Equal(message.PartText))
			Expect(m.Parts[0].Text).To(Equal("Here is the trend:"))

			Expect(m.Parts[1].Kind).To(Equal(message.PartComponent))
			Expect(m.Parts[1].Name).To(Equal("timeseries_chart"))
			Expect(m.Parts[1].Props).To(HaveKeyWithValue("metric", "cpu"))
			Expect(m.Parts[1].Props).To(HaveKeyWithValue("window", "15m"))

			Expect(m.Parts[2].Kind).To(Equal(message.PartText))
			Expect(m.Parts[2].Text).To(Equal("Load peaked at 14:02."))

			for i := 1; i < len(m.Parts); i++ {
				Expect(m.Parts[i].Segment).To(BeNumerically(">", m.Parts[i-1].Segment))
			}
		})
	})

	Describe("failing transcript", func() {
		It("drops the malformed frame and settles the message as an error", func() {
			asm, dropped := replayTranscript("run_error.sse")
			Expect(dropped).To(Equal(1))

			m, ok := asm.Message("msg_r-4_1")
			Expect(ok).To(BeTrue())
			Expect(m.Status).To(Equal(message.StatusSettledError))
			Expect(m.Error).To(Equal("LLM execution failed: context canceled"))
			Expect(m.Text()).To(Equal("Partial answer before the failure."))
		})
	})

	Describe("history handoff", func() {
		It("records every settled message to disk and loads it back", func() {
			dir := GinkgoT().TempDir()
			path := filepath.Join(dir, "session.json")

			recorder, err := history.NewFileRecorder(path)
			Expect(err).NotTo(HaveOccurred())

			asm, dropped := replayTranscript("tool_call.sse", assembler.WithRecorder(recorder))
			Expect(dropped).To(BeZero())
			Expect(asm.Messages()).To(HaveLen(1))

			reloaded, err := history.NewFileRecorder(path)
			Expect(err).NotTo(HaveOccurred())

			recorded := reloaded.Messages
			Expect(recorded).To(HaveLen(1))
			Expect(recorded[0].ID).To(Equal("msg_r-2_1"))
			Expect(recorded[0].Status).To(Equal(message.StatusSettledSuccess))
			Expect(recorded[0].Text()).To(Equal("Let me search. Three hosts are hot."))
		})
	})

	Describe("back-to-back runs", func() {
		It("replays independent transcripts through one assembler", func() {
			asm := assembler.New()

			for _, name := range []string{"hello.sse", "mixed.sse"} {
				path := filepath.Join("..", "testdata", "transcripts", name)
				file, err := os.Open(path)
				Expect(err).NotTo(HaveOccurred())

				scanner := bufio.NewScanner(file)
				for scanner.Scan() {
					payload, ok := agui.StripDataPrefix(scanner.Text())
					if !ok {
						continue
					}
					_, err := asm.Feed([]byte(payload))
					Expect(err).NotTo(HaveOccurred())
				}
				Expect(scanner.Err()).NotTo(HaveOccurred())
				file.Close()
			}

			messages := asm.Messages()
			Expect(messages).To(HaveLen(2))
			for _, m := range messages {
				Expect(m.Status).To(Equal(message.StatusSettledSuccess))
			}
		})
	})
})
