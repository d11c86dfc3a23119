package window

import (
	"context"
	"fmt"
	"image/color"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/zurustar/blockstep/pkg/host"
	"github.com/zurustar/blockstep/pkg/interpreter"
	"github.com/zurustar/blockstep/pkg/logger"
	"github.com/zurustar/blockstep/pkg/program"
	"github.com/zurustar/blockstep/pkg/world"
	"golang.org/x/image/font/basicfont"
)

var (
	// 背景色 #0087C8
	backgroundColor = color.RGBA{0x00, 0x87, 0xC8, 0xFF}
	// 盤面の色
	boardColor = color.RGBA{0xF4, 0xF4, 0xEC, 0xFF}
	// 罫線の色
	gridColor = color.RGBA{0xC8, 0xC8, 0xC0, 0xFF}
	// 軌跡の色
	pathColor = color.RGBA{0xD0, 0x30, 0x30, 0xFF}
	// キャラクターの色
	characterColor = color.RGBA{0x20, 0x40, 0x90, 0xFF}
	// テキスト色（白）
	textColor = color.White
	// 選択中のテキスト色（黄色）
	selectedTextColor = color.RGBA{0xFF, 0xFF, 0x00, 0xFF}
	// エラー表示の色
	errorTextColor = color.RGBA{0xFF, 0xA0, 0xA0, 0xFF}
	// デフォルトフォント
	defaultFace = text.NewGoXFace(basicfont.Face7x13)
)

const helpText = "SPACE play/pause   S stop   N step   R reset   1-5 speed   D draw   M mute   ESC quit"

// Muter は音声のミュート切り替えを行う
type Muter interface {
	SetMuted(muted bool)
	IsMuted() bool
}

// Game はEbitengineのゲームインターフェースを実装する
type Game struct {
	session *host.Session
	world   *world.World
	board   board

	title     string        // ウィンドウタイトルと一覧の見出し
	timeout   time.Duration // タイムアウト時間
	startTime time.Time     // 開始時刻
	muter     Muter

	mu      sync.RWMutex
	speed   int    // 速度レベル（0はステップ時間を直接指定）
	message string // 最後の操作結果

	stepping atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc
	log    *slog.Logger
}

// Option はGameの設定を行う
type Option func(*Game)

// WithTitle 見出しを設定する
func WithTitle(title string) Option {
	return func(g *Game) {
		g.title = title
	}
}

// WithTimeout タイムアウト時間を設定する
func WithTimeout(d time.Duration) Option {
	return func(g *Game) {
		g.timeout = d
	}
}

// WithSpeed 表示する速度レベルを設定する
func WithSpeed(level int) Option {
	return func(g *Game) {
		g.speed = level
	}
}

// WithMuter Mキーで切り替える音声を設定する
func WithMuter(m Muter) Option {
	return func(g *Game) {
		g.muter = m
	}
}

// NewGame Gameを作成
func NewGame(session *host.Session, w *world.World, opts ...Option) *Game {
	ctx, cancel := context.WithCancel(context.Background())
	g := &Game{
		session:   session,
		world:     w,
		board:     board{dims: w.Character().Dimensions},
		title:     "blockstep",
		startTime: time.Now(),
		speed:     host.DefaultSpeed,
		ctx:       ctx,
		cancel:    cancel,
		log:       logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// keys はUpdateで監視するキー
var keys = []ebiten.Key{
	ebiten.KeySpace, ebiten.KeyS, ebiten.KeyN, ebiten.KeyR, ebiten.KeyD, ebiten.KeyM,
	ebiten.Key1, ebiten.Key2, ebiten.Key3, ebiten.Key4, ebiten.Key5,
	ebiten.KeyEscape,
}

// speedKeys は数字キーと速度レベルの対応
var speedKeys = map[ebiten.Key]int{
	ebiten.Key1: 1, ebiten.Key2: 2, ebiten.Key3: 3, ebiten.Key4: 4, ebiten.Key5: 5,
}

// Update ゲームロジックの更新（Ebitengineが毎フレーム呼び出す）
func (g *Game) Update() error {
	// タイムアウトチェック
	if g.timeout > 0 && time.Since(g.startTime) >= g.timeout {
		g.shutdown()
		return ebiten.Termination
	}

	for _, k := range keys {
		if inpututil.IsKeyJustPressed(k) {
			if err := g.handleKey(k); err != nil {
				return err
			}
		}
	}
	return nil
}

// handleKey キー入力を処理する
func (g *Game) handleKey(k ebiten.Key) error {
	switch k {
	case ebiten.KeySpace:
		g.session.Play()

	case ebiten.KeyS:
		g.session.Stop()

	case ebiten.KeyN:
		g.step()

	case ebiten.KeyR:
		g.reset()

	case ebiten.KeyD:
		on := !g.world.Drawing()
		g.world.SetDrawing(on)
		if on {
			g.setMessage("drawing on")
		} else {
			g.setMessage("drawing off")
		}

	case ebiten.KeyM:
		if g.muter != nil {
			g.muter.SetMuted(!g.muter.IsMuted())
		}

	case ebiten.Key1, ebiten.Key2, ebiten.Key3, ebiten.Key4, ebiten.Key5:
		level := speedKeys[k]
		if err := g.session.SetSpeed(level); err != nil {
			g.setMessage(err.Error())
			return nil
		}
		g.mu.Lock()
		g.speed = level
		g.mu.Unlock()

	case ebiten.KeyEscape:
		g.shutdown()
		return ebiten.Termination
	}
	return nil
}

// step 1ブロックだけ実行する（Updateを止めないよう別ゴルーチンで実行）
func (g *Game) step() {
	if !g.stepping.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer g.stepping.Store(false)
		if err := g.session.StepOnce(g.ctx); err != nil {
			g.log.Warn("Step failed", "error", err)
			g.setMessage(err.Error())
		}
	}()
}

// reset キャラクターとプログラムを最初の状態に戻す
func (g *Game) reset() {
	if state := g.session.RunningState(); state != interpreter.Stopped && state != interpreter.Paused {
		g.setMessage("stop the program before resetting")
		return
	}
	g.world.Reset()
	g.session.SetProgram(g.session.ProgramSequence().ResetAllLoops().WithProgramCounter(0))
	g.setMessage("reset")
}

// shutdown 実行中のプログラムを止める
func (g *Game) shutdown() {
	g.cancel()
	g.session.Stop()
}

func (g *Game) setMessage(msg string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.message = msg
}

// Draw 画面描画（Ebitengineが毎フレーム呼び出す）
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(backgroundColor)

	c := g.world.Character()
	g.drawBoard(screen)
	g.drawPath(screen, c)
	g.drawCharacter(screen, c)
	g.drawListing(screen, g.session.ProgramSequence())
	g.drawStatus(screen, c)
}

// drawBoard 盤面と座標ラベルの描画
func (g *Game) drawBoard(screen *ebiten.Image) {
	dims := g.board.dims
	w, h := g.board.size()
	vector.DrawFilledRect(screen, boardX, boardY, w, h, boardColor, false)

	for i := 0; i <= dims.Width(); i++ {
		x := boardX + float32(i)*cellSize
		vector.StrokeLine(screen, x, boardY, x, boardY+h, 1, gridColor, false)
	}
	for i := 0; i <= dims.Height(); i++ {
		y := boardY + float32(i)*cellSize
		vector.StrokeLine(screen, boardX, y, boardX+w, y, 1, gridColor, false)
	}

	for x := dims.MinX; x <= dims.MaxX; x++ {
		cx, _ := g.board.center(x, dims.MinY)
		drawText(screen, dims.ColumnLabel(x), float64(cx)-3, boardY-18, textColor)
	}
	for y := dims.MinY; y <= dims.MaxY; y++ {
		_, cy := g.board.center(dims.MinX, y)
		drawText(screen, dims.RowLabel(y), boardX-24, float64(cy)-7, textColor)
	}
}

// drawPath 描いた軌跡の描画
func (g *Game) drawPath(screen *ebiten.Image, c world.Character) {
	for _, s := range c.Path {
		x1, y1 := g.board.center(s.X1, s.Y1)
		x2, y2 := g.board.center(s.X2, s.Y2)
		vector.StrokeLine(screen, x1, y1, x2, y2, 3, pathColor, true)
	}
}

// drawCharacter キャラクターと向きの描画
func (g *Game) drawCharacter(screen *ebiten.Image, c world.Character) {
	cx, cy := g.board.center(c.X, c.Y)
	vector.DrawFilledCircle(screen, cx, cy, cellSize/3, characterColor, true)

	dx, dy := c.Direction.Delta()
	vector.StrokeLine(screen, cx, cy, cx+float32(dx)*cellSize/2, cy+float32(dy)*cellSize/2, 3, characterColor, true)
}

// drawListing プログラム一覧の描画（現在のブロックを強調）
func (g *Game) drawListing(screen *ebiten.Image, seq program.Sequence) {
	drawText(screen, g.title, listingX, listingY-24, textColor)

	lines := listing(seq)
	start, end := visibleRange(lines, maxListingRows)
	for i, l := range lines[start:end] {
		y := float64(listingY + i*lineHeight)
		if l.Current {
			drawText(screen, "> "+l.Text, listingX, y, selectedTextColor)
		} else {
			drawText(screen, "  "+l.Text, listingX, y, textColor)
		}
	}
}

// drawStatus 状態表示と操作説明の描画
func (g *Game) drawStatus(screen *ebiten.Image, c world.Character) {
	g.mu.RLock()
	speed := g.speed
	message := g.message
	g.mu.RUnlock()

	muted := g.muter == nil || g.muter.IsMuted()
	stepTime := g.session.Interpreter().StepTime()
	status := statusText(g.session.RunningState(), speed, stepTime, g.world.Drawing(), muted)

	_, h := g.board.size()
	y := float64(boardY+h) + 24
	drawText(screen, c.String(), boardX, y, textColor)
	drawText(screen, status, boardX, y+lineHeight, textColor)

	if err := g.session.Err(); err != nil {
		drawText(screen, err.Error(), boardX, y+2*lineHeight, errorTextColor)
	} else if message != "" {
		drawText(screen, message, boardX, y+2*lineHeight, textColor)
	}

	drawText(screen, helpText, boardX, screenHeight-32, textColor)
}

func drawText(screen *ebiten.Image, s string, x, y float64, clr color.Color) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(clr)
	text.Draw(screen, s, defaultFace, op)
}

// Layout 画面サイズを返す
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}

// Run GUIモードでウィンドウを実行
func Run(session *host.Session, w *world.World, opts ...Option) error {
	game := NewGame(session, w, opts...)

	// ウィンドウ設定
	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle("blockstep - " + game.title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	// ゲームを実行
	if err := ebiten.RunGame(game); err != nil {
		game.shutdown()
		return fmt.Errorf("failed to run game: %w", err)
	}
	return nil
}
