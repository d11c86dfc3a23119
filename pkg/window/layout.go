package window

import (
	"fmt"
	"strings"
	"time"

	"github.com/zurustar/blockstep/pkg/interpreter"
	"github.com/zurustar/blockstep/pkg/program"
	"github.com/zurustar/blockstep/pkg/world"
)

const (
	screenWidth  = 1024
	screenHeight = 768

	// 盤面の位置とセルの大きさ
	boardX   = 40
	boardY   = 40
	cellSize = 28

	// プログラム一覧の位置
	listingX       = 790
	listingY       = 40
	lineHeight     = 18
	maxListingRows = 30
)

// board は盤面の座標変換を行う
type board struct {
	dims world.Dimensions
}

// center セルの中心のスクリーン座標を返す
func (b board) center(x, y int) (float32, float32) {
	cx := boardX + float32(x-b.dims.MinX)*cellSize + cellSize/2
	cy := boardY + float32(y-b.dims.MinY)*cellSize + cellSize/2
	return cx, cy
}

// size 盤面全体の幅と高さを返す
func (b board) size() (float32, float32) {
	return float32(b.dims.Width()) * cellSize, float32(b.dims.Height()) * cellSize
}

// listingLine はプログラム一覧の1行
type listingLine struct {
	Text    string
	Current bool
}

// listing プログラムを字下げ付きの行に変換する
// ループの内側は1段ずつ字下げし、プログラムカウンタの位置に印を付ける
func listing(seq program.Sequence) []listingLine {
	blocks := seq.Blocks()
	lines := make([]listingLine, 0, len(blocks)+1)
	depth := 0
	for i, b := range blocks {
		if b.Kind == program.KindEndLoop && depth > 0 {
			depth--
		}
		var text string
		switch b.Kind {
		case program.KindStartLoop:
			text = fmt.Sprintf("repeat %d [%s] (%d left)", b.Iterations, b.Label, b.IterationsLeft)
		case program.KindEndLoop:
			text = fmt.Sprintf("end [%s]", b.Label)
		default:
			text = b.String()
		}
		lines = append(lines, listingLine{
			Text:    strings.Repeat("  ", depth) + text,
			Current: i == seq.ProgramCounter(),
		})
		if b.Kind == program.KindStartLoop {
			depth++
		}
	}
	if seq.AtEnd() {
		lines = append(lines, listingLine{Text: "(end)", Current: true})
	}
	return lines
}

// visibleRange 現在行が見えるように表示範囲を決める
func visibleRange(lines []listingLine, rows int) (int, int) {
	if len(lines) <= rows {
		return 0, len(lines)
	}
	current := 0
	for i, l := range lines {
		if l.Current {
			current = i
			break
		}
	}
	start := current - rows/2
	if start < 0 {
		start = 0
	}
	if start+rows > len(lines) {
		start = len(lines) - rows
	}
	return start, start + rows
}

// statusText 状態表示の文字列を作る
func statusText(state interpreter.RunningState, speed int, stepTime time.Duration, drawing, muted bool) string {
	onOff := func(b bool) string {
		if b {
			return "on"
		}
		return "off"
	}
	speedText := "custom"
	if speed > 0 {
		speedText = fmt.Sprintf("%d", speed)
	}
	return fmt.Sprintf("state: %s   speed: %s (%s)   drawing: %s   sound: %s",
		state, speedText, stepTime, onOff(drawing), onOff(!muted))
}
