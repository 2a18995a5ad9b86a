// Package ramfs implements the in-RAM POSIX-like filesystem backing
// OTA staging, script loading, and ad-hoc file storage (spec §4.8).
// It generalizes original_source/main/ramdisk.h's single-directory
// Root/Directory/File/FileDescriptor shape into a flat, path-keyed
// store with a bounded file-descriptor table.
package ramfs

import (
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/eriksl/esp32ctl/internal/constants"
)

// Open flags, a small subset of POSIX fcntl flags relevant to a RAM
// filesystem with no permission bits.
const (
	ORdOnly = 0x0
	OWrOnly = 0x1
	ORdWr   = 0x2
	OCreate = 0x40
	OTrunc  = 0x200
	OAppend = 0x400
)

// Seek whence values, matching lseek(2).
const (
	SeekSet = 0
	SeekCur = 1
	SeekEnd = 2
)

// FileInfo mirrors the subset of struct stat the dispatcher's
// fs-info/fs-list commands report.
type FileInfo struct {
	Name  string
	Size  int64
	Ctime time.Time
	Mtime time.Time
}

type file struct {
	name   string
	fileno uint32
	data   []byte
	ctime  time.Time
	mtime  time.Time
	openFD int // count of file descriptors currently open against this file
}

type descriptor struct {
	fileno uint32
	flags  int
	offset int64
}

type dirCursor struct {
	names []string
	pos   int
}

// Root is the filesystem root: one flat namespace of files, a bounded
// fd table (spec: fd_max = 8), and directory-iteration handles. The
// whole-operation mutex matches spec §5's concurrency note that Ramfs
// access is serialized by the single intake worker, mirrored here as
// an explicit lock so the type is also safe to use from tests that
// exercise it concurrently.
type Root struct {
	mu sync.Mutex

	files      map[string]*file
	nextFileno uint32

	fds    map[int]*descriptor
	nextFD int

	dirs      map[int]*dirCursor
	nextDirFD int
}

// New creates an empty filesystem root.
func New() *Root {
	return &Root{
		files: make(map[string]*file),
		fds:   make(map[int]*descriptor),
		dirs:  make(map[int]*dirCursor),
	}
}

// Open resolves path to a file descriptor, creating the file when
// OCreate is set and it doesn't yet exist (spec §4.8).
func (r *Root) Open(path string, flags int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.files[path]
	if !ok {
		if flags&OCreate == 0 {
			return -1, unix.ENOENT
		}
		f = &file{name: path, fileno: r.nextFileno, ctime: time.Now(), mtime: time.Now()}
		r.nextFileno++
		r.files[path] = f
	} else {
		if r.hasWriteOpen(f.fileno) {
			return -1, unix.EBUSY
		}
		if flags&OTrunc != 0 {
			f.data = nil
			f.mtime = time.Now()
		}
	}

	if len(r.fds) >= constants.MaxOpenFiles {
		return -1, unix.ENOMEM
	}

	fdnum := r.nextFD
	r.nextFD++
	offset := int64(0)
	if flags&OAppend != 0 {
		offset = int64(len(f.data))
	}
	r.fds[fdnum] = &descriptor{fileno: f.fileno, flags: flags, offset: offset}
	f.openFD++
	return fdnum, nil
}

// Close releases a file descriptor (spec §4.8: errors free descriptors too).
func (r *Root) Close(fd int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.fds[fd]
	if !ok {
		return unix.EBADF
	}
	if f := r.fileByNo(d.fileno); f != nil {
		f.openFD--
	}
	delete(r.fds, fd)
	return nil
}

func (r *Root) fileByNo(no uint32) *file {
	for _, f := range r.files {
		if f.fileno == no {
			return f
		}
	}
	return nil
}

// hasWriteOpen reports whether any live descriptor against fileno was
// opened with write access (spec §4.8 / testable property 7: a
// write-open file blocks every further open, read or write, until
// closed).
func (r *Root) hasWriteOpen(fileno uint32) bool {
	for _, d := range r.fds {
		if d.fileno == fileno && d.flags&(OWrOnly|ORdWr) != 0 {
			return true
		}
	}
	return false
}

// Read reads up to size bytes from fd at its current offset, advancing it.
func (r *Root) Read(fd int, size int) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.fds[fd]
	if !ok {
		return nil, unix.EBADF
	}
	f := r.fileByNo(d.fileno)
	if f == nil {
		return nil, unix.EBADF
	}
	if d.offset >= int64(len(f.data)) {
		return nil, nil
	}
	end := d.offset + int64(size)
	if end > int64(len(f.data)) {
		end = int64(len(f.data))
	}
	out := append([]byte(nil), f.data[d.offset:end]...)
	d.offset = end
	return out, nil
}

// Write appends/overwrites length bytes at fd's current offset,
// growing the file as needed, and advances the offset.
func (r *Root) Write(fd int, data []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.fds[fd]
	if !ok {
		return 0, unix.EBADF
	}
	f := r.fileByNo(d.fileno)
	if f == nil {
		return 0, unix.EBADF
	}
	end := d.offset + int64(len(data))
	if end > int64(len(f.data)) {
		grown := make([]byte, end)
		copy(grown, f.data)
		f.data = grown
	}
	copy(f.data[d.offset:end], data)
	d.offset = end
	f.mtime = time.Now()
	return len(data), nil
}

// Lseek repositions fd's offset per whence (spec §4.8).
func (r *Root) Lseek(fd int, offset int64, whence int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.fds[fd]
	if !ok {
		return 0, unix.EBADF
	}
	f := r.fileByNo(d.fileno)
	if f == nil {
		return 0, unix.EBADF
	}
	var base int64
	switch whence {
	case SeekSet:
		base = 0
	case SeekCur:
		base = d.offset
	case SeekEnd:
		base = int64(len(f.data))
	default:
		return 0, unix.EINVAL
	}
	newOffset := base + offset
	if newOffset < 0 {
		return 0, unix.EINVAL
	}
	d.offset = newOffset
	return newOffset, nil
}

// Truncate resizes a file by path.
func (r *Root) Truncate(path string, length int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.files[path]
	if !ok {
		return unix.ENOENT
	}
	resize(f, length)
	return nil
}

// Ftruncate resizes a file by its open descriptor.
func (r *Root) Ftruncate(fd int, length int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.fds[fd]
	if !ok {
		return unix.EBADF
	}
	f := r.fileByNo(d.fileno)
	if f == nil {
		return unix.EBADF
	}
	resize(f, length)
	return nil
}

func resize(f *file, length int64) {
	if length < 0 {
		length = 0
	}
	if int64(len(f.data)) == length {
		return
	}
	grown := make([]byte, length)
	copy(grown, f.data)
	f.data = grown
	f.mtime = time.Now()
}

// Unlink removes a file by path; it must not be open.
func (r *Root) Unlink(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.files[path]
	if !ok {
		return unix.ENOENT
	}
	if f.openFD > 0 {
		return unix.EBUSY
	}
	delete(r.files, path)
	return nil
}

// Rename moves from to to (spec §4.8 / testable property 8): if to
// exists and is not open, it is replaced; if to is open, the rename
// fails with EBUSY (the RAM behavior spec.md takes as normative).
func (r *Root) Rename(from, to string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	src, ok := r.files[from]
	if !ok {
		return unix.ENOENT
	}
	if dst, exists := r.files[to]; exists {
		if dst.openFD > 0 {
			return unix.EBUSY
		}
	}
	delete(r.files, from)
	src.name = to
	r.files[to] = src
	return nil
}

// Stat reports file metadata by path.
func (r *Root) Stat(path string) (FileInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.files[path]
	if !ok {
		return FileInfo{}, unix.ENOENT
	}
	return fileInfo(f), nil
}

// Fstat reports file metadata by open descriptor.
func (r *Root) Fstat(fd int) (FileInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.fds[fd]
	if !ok {
		return FileInfo{}, unix.EBADF
	}
	f := r.fileByNo(d.fileno)
	if f == nil {
		return FileInfo{}, unix.EBADF
	}
	return fileInfo(f), nil
}

func fileInfo(f *file) FileInfo {
	return FileInfo{Name: f.name, Size: int64(len(f.data)), Ctime: f.ctime, Mtime: f.mtime}
}

// OpenDir begins a directory listing; path is informational only
// since the namespace is flat.
func (r *Root) OpenDir(path string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.files))
	for name := range r.files {
		names = append(names, name)
	}
	handle := r.nextDirFD
	r.nextDirFD++
	r.dirs[handle] = &dirCursor{names: names}
	return handle, nil
}

// ReadDir returns the next entry name, or ok=false at end of listing.
func (r *Root) ReadDir(handle int) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.dirs[handle]
	if !ok {
		return "", false, unix.EBADF
	}
	if c.pos >= len(c.names) {
		return "", false, nil
	}
	name := c.names[c.pos]
	c.pos++
	return name, true, nil
}

// CloseDir releases a directory handle.
func (r *Root) CloseDir(handle int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.dirs[handle]; !ok {
		return unix.EBADF
	}
	delete(r.dirs, handle)
	return nil
}

// Ioctl op codes, numbered after the ramdisk's diagnostic ioctls
// (original_source/main/ramdisk.h: IO_RAMDISK_GET_USED/SET_SIZE/
// GET_SIZE/WIPE). Ioctl handles IoctlGetUsed and IoctlWipe only;
// IoctlSetSize, IoctlGetSize and any other op return unix.EINVAL.
const (
	IoctlGetUsed = iota
	IoctlSetSize
	IoctlGetSize
	IoctlWipe
)

func (r *Root) Ioctl(op int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch op {
	case IoctlGetUsed:
		total := 0
		for _, f := range r.files {
			total += len(f.data)
		}
		return total, nil
	case IoctlWipe:
		for path, f := range r.files {
			if f.openFD > 0 {
				continue
			}
			delete(r.files, path)
		}
		return 0, nil
	default:
		return 0, unix.EINVAL
	}
}
