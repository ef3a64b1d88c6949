// Package frame moves pixel frames between the code that picks content
// and the loop that presents it.
//
// Three pieces work together:
//
//   - Buffer, a pooled pixel container that travels with render
//     messages. Ownership moves with the message; the receiving side
//     releases the buffer back to its pool.
//   - Source, something that can decode into a frame: a file, a reader,
//     or an image already in memory.
//   - Stager, a single-slot hand-off. Producers stage whatever should
//     show next; the present loop takes the staged buffer when it is
//     ready to draw. Staging a new frame replaces an unconsumed one
//     (latest wins), so a slow present loop never builds a queue.
//
// # Example
//
//	st := frame.NewStager(frame.WithDecodeCache(16))
//	defer st.Close()
//
//	_ = st.Stage(ctx, frame.FileSource{Path: "clip_0042.tiff"})
//
//	// In the present loop:
//	if buf := st.TakeStaged(); buf != nil {
//		pending := renderer.RenderFrame(buf, buf.Width, buf.Height) // ownership moves
//		_ = pending
//	}
package frame
