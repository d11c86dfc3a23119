package cli

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// MaxSpeed は速度レベルの上限（1が最も遅い）
const MaxSpeed = 5

// DefaultSpeed は速度レベルの既定値
const DefaultSpeed = 3

// Config はコマンドライン引数から解析された設定を保持する
type Config struct {
	ProgramPath  string        // プログラムファイルのパス、または組み込みサンプル名
	Timeout      time.Duration // タイムアウト時間（0は無制限）
	LogLevel     string        // ログレベル（debug, info, warn, error）
	LogFile      string        // JSONログの出力先（空なら出力しない）
	Headless     bool          // ヘッドレスモード
	Interactive  bool          // 対話コンソール
	Speed        int           // 速度レベル（1〜5）
	StepTime     time.Duration // ステップ時間（0は速度レベルに従う）
	SoundFont    string        // SoundFontファイルのパス
	Robot        string        // ロボットドライバ（none, fake）
	Lang         string        // 読み上げの言語（en, fr, ja）
	ListPrograms bool          // 組み込みサンプルの一覧表示
	ShowHelp     bool          // ヘルプ表示フラグ
}

// boolFlags は値を取らないフラグ
var boolFlags = map[string]bool{
	"-h": true, "--help": true, "-help": true,
	"--headless": true, "-headless": true,
	"-i": true, "--interactive": true, "-interactive": true,
	"--list": true, "-list": true,
}

// ParseArgs コマンドライン引数を解析してConfigを返す
func ParseArgs(args []string) (*Config, error) {
	// 引数を並べ替え：フラグを前に、位置引数を後ろに
	reorderedArgs := reorderArgs(args)

	fs := flag.NewFlagSet("blockstep", flag.ContinueOnError)

	config := &Config{}

	var timeoutSec, stepTimeMs int
	fs.IntVar(&timeoutSec, "timeout", 0, "タイムアウト時間（秒）")
	fs.IntVar(&timeoutSec, "t", 0, "タイムアウト時間（秒）（短縮形）")
	fs.StringVar(&config.LogLevel, "log-level", "info", "ログレベル（debug, info, warn, error）")
	fs.StringVar(&config.LogLevel, "l", "info", "ログレベル（短縮形）")
	fs.StringVar(&config.LogFile, "log-file", "", "JSONログの出力先")
	fs.BoolVar(&config.Headless, "headless", false, "ヘッドレスモード")
	fs.BoolVar(&config.Interactive, "interactive", false, "対話コンソール")
	fs.BoolVar(&config.Interactive, "i", false, "対話コンソール（短縮形）")
	fs.IntVar(&config.Speed, "speed", DefaultSpeed, "速度レベル（1〜5）")
	fs.IntVar(&config.Speed, "s", DefaultSpeed, "速度レベル（短縮形）")
	fs.IntVar(&stepTimeMs, "step-time", 0, "ステップ時間（ミリ秒）")
	fs.StringVar(&config.SoundFont, "soundfont", "", "SoundFontファイルのパス")
	fs.StringVar(&config.Robot, "robot", "none", "ロボットドライバ（none, fake）")
	fs.StringVar(&config.Lang, "lang", "", "読み上げの言語（en, fr, ja）")
	fs.BoolVar(&config.ListPrograms, "list", false, "組み込みサンプルを一覧表示")
	fs.BoolVar(&config.ShowHelp, "help", false, "ヘルプを表示")
	fs.BoolVar(&config.ShowHelp, "h", false, "ヘルプを表示（短縮形）")

	if err := fs.Parse(reorderedArgs); err != nil {
		return nil, err
	}

	// 環境変数からの設定（コマンドラインフラグが優先）
	if !config.Headless {
		if headlessEnv := os.Getenv("HEADLESS"); headlessEnv != "" {
			config.Headless = headlessEnv == "1" || strings.ToLower(headlessEnv) == "true"
		}
	}

	// 環境変数からタイムアウトを取得（コマンドラインフラグが優先）
	if timeoutSec == 0 {
		if timeoutEnv := os.Getenv("TIMEOUT"); timeoutEnv != "" {
			if t, err := strconv.Atoi(timeoutEnv); err == nil && t > 0 {
				timeoutSec = t
			}
		}
	}

	// 環境変数からログレベルを取得（コマンドラインフラグが優先）
	if config.LogLevel == "info" {
		if logLevelEnv := os.Getenv("LOG_LEVEL"); logLevelEnv != "" {
			config.LogLevel = strings.ToLower(logLevelEnv)
		}
	}

	if config.SoundFont == "" {
		config.SoundFont = os.Getenv("SOUNDFONT")
	}

	// 言語はLANG（例: ja_JP.UTF-8）の先頭部分を使う
	if config.Lang == "" {
		config.Lang = langFromEnv(os.Getenv("LANG"))
	}

	// タイムアウトの検証
	if timeoutSec < 0 {
		return nil, fmt.Errorf("timeout must be non-negative, got %d", timeoutSec)
	}
	config.Timeout = time.Duration(timeoutSec) * time.Second

	// ログレベルの検証
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[config.LogLevel] {
		return nil, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", config.LogLevel)
	}

	// 速度とステップ時間の検証
	if config.Speed < 1 || config.Speed > MaxSpeed {
		return nil, fmt.Errorf("invalid speed: %d (must be 1-%d)", config.Speed, MaxSpeed)
	}
	if stepTimeMs < 0 {
		return nil, fmt.Errorf("step time must be non-negative, got %d", stepTimeMs)
	}
	config.StepTime = time.Duration(stepTimeMs) * time.Millisecond

	// ロボットドライバの検証
	if config.Robot != "none" && config.Robot != "fake" {
		return nil, fmt.Errorf("invalid robot: %s (must be none or fake)", config.Robot)
	}

	// 位置引数（プログラムファイルまたはサンプル名）
	if fs.NArg() > 0 {
		config.ProgramPath = fs.Arg(0)
	}

	return config, nil
}

// langFromEnv LANG環境変数から言語コードを取り出す
func langFromEnv(env string) string {
	if env == "" || env == "C" || env == "POSIX" {
		return "en"
	}
	if i := strings.IndexAny(env, "_.@"); i >= 0 {
		env = env[:i]
	}
	return strings.ToLower(env)
}

// reorderArgs 引数を並べ替えて、フラグを前に、位置引数を後ろに配置する
func reorderArgs(args []string) []string {
	var flags []string
	var positional []string

	for i := 0; i < len(args); i++ {
		arg := args[i]

		// フラグかどうかを判定（-または--で始まる）
		if len(arg) > 0 && arg[0] == '-' {
			flags = append(flags, arg)

			// -t 5 のように次の引数が値である場合は一緒に移動する
			if !boolFlags[arg] && !strings.Contains(arg, "=") &&
				i+1 < len(args) && len(args[i+1]) > 0 && args[i+1][0] != '-' {
				i++
				flags = append(flags, args[i])
			}
		} else {
			// 位置引数
			positional = append(positional, arg)
		}
	}

	// フラグを前に、位置引数を後ろに配置
	return append(flags, positional...)
}

// PrintHelp ヘルプメッセージを表示
func PrintHelp() {
	fmt.Fprintf(os.Stdout, `blockstep - block program runner

Usage:
  blockstep [options] [program]

Arguments:
  program       プログラムファイル（.yaml, .yml, .cue）のパス、または組み込みサンプル名
                省略した場合は組み込みサンプル "square" を実行

Options:
  -t, --timeout <seconds>     指定秒数後にプログラムを終了（デフォルト: 無制限）
  -l, --log-level <level>     ログレベル: debug, info, warn, error（デフォルト: info）
  --log-file <path>           JSON形式のログをファイルにも出力
  --headless                  ヘッドレスモード（GUIなし、最後まで実行して終了）
  -i, --interactive           対話コンソールで操作
  -s, --speed <1-5>           実行速度（1: 2000ms, 3: 1000ms, 5: 250ms、デフォルト: 3）
  --step-time <ms>            ステップ時間をミリ秒で指定（速度より優先）
  --soundfont <path>          移動音に使うSoundFont（.sf2）
  --robot <none|fake>         ロボットドライバ（デフォルト: none）
  --lang <en|fr|ja>           読み上げの言語（デフォルト: LANGから判定）
  --list                      組み込みサンプルを一覧表示
  -h, --help                  このヘルプを表示

Environment Variables:
  HEADLESS=1                  ヘッドレスモードを有効化
  TIMEOUT=<seconds>           タイムアウト時間（秒）
  LOG_LEVEL=<level>           ログレベル
  SOUNDFONT=<path>            SoundFontファイルのパス
  LANG=<locale>               読み上げの言語

Examples:
  blockstep square                    組み込みサンプルを実行
  blockstep ./my-program.yaml         プログラムファイルを実行
  blockstep --headless --speed 5 zigzag  GUIなしで高速に実行
  blockstep -i square                 対話コンソールで操作
  blockstep --robot fake square       疑似ロボットを接続して実行
`)
}
