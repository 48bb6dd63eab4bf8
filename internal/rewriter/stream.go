package rewriter

import (
	"github.com/opustools/zoog"
	"github.com/opustools/zoog/internal/interrupt"
	"github.com/opustools/zoog/internal/oggstream"
)

// StreamResult summarizes the outcome of RewriteStream.
type StreamResult struct {
	Outcome       Outcome
	SummaryBefore any
	SummaryAfter  any
}

// RewriteStream reads packets from r, drives them through a Driver built
// from rewrite/summarize, and writes the (possibly rewritten) packets to
// w. If abortOnUnchanged is true and the header pair resolves to
// HeadersUnchanged, it returns immediately without consuming or writing
// the rest of the stream, letting the caller discard the output file.
// Between packets it polls in for a raised cooperative-cancellation flag.
func RewriteStream(rewrite RewriteFunc, summarize SummarizeFunc, r *oggstream.Reader, w *oggstream.Writer, abortOnUnchanged bool, in interrupt.Source) (StreamResult, error) {
	d := New(rewrite, summarize)
	bosWritten := make(map[uint32]bool)

	var resolved bool
	var finalResult Result

	for {
		if in != nil && in.IsSet() {
			return StreamResult{}, &zoog.Error{Kind: zoog.Control, Op: "RewriteStream", Err: zoog.ErrInterrupted}
		}

		pkt, err := r.ReadPacket()
		if err != nil {
			return StreamResult{}, err
		}
		if pkt == nil {
			break
		}

		wasAwaitingHeader := d.state == stateAwaitingHeader

		out, result, err := d.Submit(*pkt)
		if err != nil {
			return StreamResult{}, err
		}

		if wasAwaitingHeader {
			// The identification packet: hold it until the comment packet
			// resolves the header pair, since it may be rewritten too.
			continue
		}

		if result.Outcome != Good {
			resolved = true
			finalResult = result
			if abortOnUnchanged && result.Outcome == HeadersUnchanged {
				return StreamResult{Outcome: result.Outcome, SummaryBefore: result.SummaryBefore, SummaryAfter: result.SummaryAfter}, nil
			}
			if err := writePacket(w, d.IDPacket(), bosWritten); err != nil {
				return StreamResult{}, err
			}
		}

		if err := writePacket(w, out, bosWritten); err != nil {
			return StreamResult{}, err
		}
	}

	if !resolved {
		return StreamResult{}, &zoog.Error{Kind: zoog.Format, Op: "RewriteStream", Err: zoog.ErrMissingStream}
	}
	return StreamResult{Outcome: finalResult.Outcome, SummaryBefore: finalResult.SummaryBefore, SummaryAfter: finalResult.SummaryAfter}, nil
}

func writePacket(w *oggstream.Writer, pkt oggstream.Packet, bosWritten map[uint32]bool) error {
	bos := !bosWritten[pkt.Serial]
	bosWritten[pkt.Serial] = true
	return w.WritePage(pkt, bos)
}
