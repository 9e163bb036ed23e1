package linesource

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

// wsReader turns the text frames of a websocket into a newline-delimited
// stream. A normal close from the peer reads as io.EOF.
type wsReader struct {
	*io.PipeReader
	conn *websocket.Conn
}

func (r *wsReader) Close() error {
	r.PipeReader.Close()
	return r.conn.Close()
}

// DialWebSocket connects to a websocket endpoint and returns a source over
// the lines it sends. Each text frame may carry one or more lines.
func DialWebSocket(ctx context.Context, url, encodingName string) (*StdioSource, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "connect %s", url)
	}

	pr, pw := io.Pipe()
	go pumpFrames(conn, pw)

	s, err := NewStdio("ws:"+url, &wsReader{PipeReader: pr, conn: conn}, encodingName)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

func pumpFrames(conn *websocket.Conn, pw *io.PipeWriter) {
	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				pw.Close()
				return
			}
			slog.Debug("websocket input closed", "error", err)
			pw.CloseWithError(errors.Wrap(io.ErrUnexpectedEOF, err.Error()))
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		text := string(data)
		if !strings.HasSuffix(text, "\n") {
			text += "\n"
		}
		if _, err := io.WriteString(pw, text); err != nil {
			return
		}
	}
}
