package downloaders

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/RecoveryAshes/DsGrab/internal/models"
	"github.com/RecoveryAshes/DsGrab/internal/utils"
)

// defaultChunkSize 流式写入的缓冲区大小
const defaultChunkSize = 64 * 1024

// partSuffix 未完成文件的临时后缀
// 只有完整写入并fsync后才重命名为最终文件名,
// 目录里绝不会出现被误认为完整的半截文件
const partSuffix = ".part"

// writeToTarget 把响应体流式写入目标文件
// 写入路径: <target>.part -> fsync -> rename(<target>)
// totalBytes>0时显示字节进度条,未知长度时显示spinner
// onRead在每次成功读取后调用(可为nil), 用于重置空闲看门狗
func writeToTarget(ctx context.Context, body io.Reader, totalBytes int64, target models.DownloadTarget, chunkSize int, onRead func()) (int64, error) {
	if err := os.MkdirAll(target.OutputDir, 0o755); err != nil {
		return 0, fmt.Errorf("创建输出目录失败: %w", err)
	}

	partPath := target.Path() + partSuffix
	file, err := os.Create(partPath)
	if err != nil {
		return 0, fmt.Errorf("创建临时文件失败: %w", err)
	}

	var dst io.Writer = file
	if totalBytes > 0 {
		bar := utils.NewByteProgressBar(totalBytes, target.Filename)
		dst = io.MultiWriter(file, bar)
	} else {
		spinner := utils.NewSpinner(target.Filename)
		dst = io.MultiWriter(file, spinner)
	}

	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	written, err := io.CopyBuffer(dst, &contextReader{ctx: ctx, r: body, onRead: onRead}, make([]byte, chunkSize))
	if err != nil {
		file.Close()
		os.Remove(partPath)
		return written, fmt.Errorf("写入中断: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(partPath)
		return written, fmt.Errorf("落盘失败: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(partPath)
		return written, fmt.Errorf("关闭文件失败: %w", err)
	}

	if err := os.Rename(partPath, target.Path()); err != nil {
		os.Remove(partPath)
		return written, fmt.Errorf("重命名失败: %w", err)
	}

	return written, nil
}

// contextReader 在读取间隙响应取消信号, 并向看门狗汇报读取进展
type contextReader struct {
	ctx    context.Context
	r      io.Reader
	onRead func()
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	n, err := c.r.Read(p)
	if n > 0 && c.onRead != nil {
		c.onRead()
	}
	return n, err
}
