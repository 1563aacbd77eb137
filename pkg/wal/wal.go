package wal

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// 自己定義常用的權限常量
const (
	// rw-r--r-- (擁有者讀寫，其他人唯讀) - 適用於大多數檔案
	FileModeReadOnly fs.FileMode = 0644

	// rwxr-xr-x (擁有者全開，其他人可讀可執行) - 適用於目錄
	FileModeExecutable fs.FileMode = 0755

	// rw------- (只有擁有者可讀寫) - 適用於稽核紀錄等機密檔
	FileModePrivate fs.FileMode = 0600
)

// ErrClosed WAL 已關閉
var ErrClosed = errors.New("wal: closed")

// WAL append-only 的 JSON Lines 檔，每筆紀錄一行
//
// 結構:
//
//	file: 以 O_APPEND 開啟的檔案
//	mu: 寫入與讀取互斥
//	closed: Close 之後拒絕寫入
type WAL struct {
	file   *os.File
	mu     sync.Mutex
	closed bool
}

// NewWAL 開啟或建立一個 WAL 檔案，必要時建立上層目錄
// O_RDWR讀寫模式
// O_APPEND 每次寫入時自動跳到文件末尾
// O_CREATE 如果文件不存在則建立
func NewWAL(path string) (*WAL, error) {
	if err := os.MkdirAll(filepath.Dir(path), FileModeExecutable); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, FileModePrivate)
	if err != nil {
		return nil, err
	}
	return &WAL{file: file}, nil
}

// Write 寫入一筆資料並刷入硬碟
// 整行先編碼完成再一次寫入，避免半行資料與其他寫入交錯
func (w *WAL) Write(v any) error {
	line, err := json.Marshal(v)
	if err != nil {
		return err
	}
	line = append(line, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	if _, err := w.file.Write(line); err != nil {
		return err
	}
	return w.file.Sync()
}

// Close 關閉檔案，可重複呼叫
func (w *WAL) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	return w.file.Close()
}

// ReadAll 從頭讀取所有紀錄
// callback 一次收到一行 JSON，不會一次將所有資料載入記憶體
// 檔尾沒有換行的半筆紀錄 (寫入中斷) 會被略過；中間行損毀則回傳錯誤
func (w *WAL) ReadAll(callback func(jsonRaw []byte) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}

	// 確保從頭讀取
	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		return err
	}

	reader := bufio.NewReader(w.file)
	lineNo := 0
	for {
		line, err := reader.ReadBytes('\n')
		if errors.Is(err, io.EOF) {
			// 沒有換行結尾代表最後一筆沒寫完
			return nil
		}
		if err != nil {
			return err
		}
		lineNo++
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		if !json.Valid(line) {
			return fmt.Errorf("wal: corrupt record at line %d", lineNo)
		}
		if err := callback(line); err != nil {
			return err
		}
	}
}
