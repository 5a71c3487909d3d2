package ticketimport

import (
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// maxArchivedBytes is the size above which archived photos are downscaled.
const maxArchivedBytes = 1_000_000

// moveTo moves dir/name into dir/sub/name. Large images going to the
// processed archive are downscaled on the way.
func moveTo(dir, sub, name string) error {
	dstDir := filepath.Join(dir, sub)
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return err
	}
	src := filepath.Join(dir, name)
	dst := filepath.Join(dstDir, name)
	fi, err := os.Stat(src)
	if err != nil {
		return err
	}
	if sub == ProcessedDir && fi.Size() > maxArchivedBytes {
		if err := shrink(src, dst, fi.Size()); err == nil {
			return os.Remove(src)
		}
	}
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	return copyRemove(src, dst)
}

// shrink writes a downscaled copy of src to dst. Size roughly follows area,
// so the side scale is the square root of the byte ratio.
func shrink(src, dst string, size int64) error {
	img, err := imaging.Open(src)
	if err != nil {
		return err
	}
	scale := math.Sqrt(float64(maxArchivedBytes) / float64(size))
	scale = math.Max(0.1, math.Min(scale, 0.95))
	w := int(math.Max(1, math.Round(float64(img.Bounds().Dx())*scale)))
	return imaging.Save(imaging.Resize(img, w, 0, imaging.Lanczos), dst)
}

func copyRemove(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
