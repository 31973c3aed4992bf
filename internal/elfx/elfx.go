// Package elfx provides helpers for opening ELF binaries, reading their
// symbol tables, and mapping virtual addresses to file contents.
package elfx

import (
	"debug/elf"
	"fmt"
	"os"
	"sort"
	"syscall"
)

type Image struct {
	Path  string
	File  *elf.File
	All   []byte
	Loads []Seg
	Text  Section

	// Syms holds the merged dynamic and static symbol tables, sorted by
	// address. Functions first come from .symtab; .dynsym fills gaps in
	// stripped binaries.
	Syms []Sym

	byAddr map[uint64]int // address -> index into Syms, first wins

	f *os.File
}

type Seg struct {
	Vaddr, Off, Filesz uint64
	Flags              elf.ProgFlag
}

type Section struct {
	Name          string
	VA, Off, Size uint64
}

type Sym struct {
	Name string
	Addr uint64
	Size uint64
	Func bool
}

func Open(path string) (*Image, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open elf: %w", err)
	}

	of, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open file: %w", err)
	}

	fi, err := of.Stat()
	if err != nil {
		of.Close()
		f.Close()
		return nil, fmt.Errorf("stat file: %w", err)
	}

	all, err := syscall.Mmap(int(of.Fd()), 0, int(fi.Size()), syscall.PROT_READ, syscall.MAP_SHARED)
	if err != nil {
		of.Close()
		f.Close()
		return nil, fmt.Errorf("mmap file: %w", err)
	}

	im := &Image{Path: path, File: f, All: all, f: of}
	for _, p := range f.Progs {
		if p.Type != elf.PT_LOAD {
			continue
		}
		im.Loads = append(im.Loads, Seg{
			Vaddr:  uint64(p.Vaddr),
			Off:    uint64(p.Off),
			Filesz: uint64(p.Filesz),
			Flags:  p.Flags,
		})
	}

	for _, s := range f.Sections {
		if s.Name == ".text" {
			im.Text = Section{s.Name, s.Addr, s.Offset, s.Size}
		}
	}

	im.loadSymbols()

	// Fallback if stripped.
	if im.Text.Size == 0 {
		for _, l := range im.Loads {
			if l.Flags&elf.PF_X != 0 && l.Filesz > 0 {
				im.Text = Section{"LOAD(exec)", l.Vaddr, l.Off, l.Filesz}
				break
			}
		}
	}
	return im, nil
}

// Close unmaps the memory and closes the underlying files.
func (im *Image) Close() error {
	if im.All != nil {
		syscall.Munmap(im.All)
		im.All = nil
	}
	if im.f != nil {
		im.f.Close()
		im.f = nil
	}
	if im.File != nil {
		return im.File.Close()
	}
	return nil
}

// Machine returns the ELF machine type of the image.
func (im *Image) Machine() elf.Machine {
	return im.File.Machine
}

func (im *Image) loadSymbols() {
	add := func(syms []elf.Symbol, err error) {
		if err != nil {
			return
		}
		for _, s := range syms {
			if s.Name == "" || s.Value == 0 {
				continue
			}
			im.Syms = append(im.Syms, Sym{
				Name: s.Name,
				Addr: s.Value,
				Size: s.Size,
				Func: elf.ST_TYPE(s.Info) == elf.STT_FUNC,
			})
		}
	}
	add(im.File.Symbols())
	add(im.File.DynamicSymbols())

	sort.Slice(im.Syms, func(i, j int) bool { return im.Syms[i].Addr < im.Syms[j].Addr })
	im.byAddr = make(map[uint64]int, len(im.Syms))
	for i, s := range im.Syms {
		if _, ok := im.byAddr[s.Addr]; !ok {
			im.byAddr[s.Addr] = i
		}
	}
}

// SymbolAt returns the symbol defined exactly at va.
func (im *Image) SymbolAt(va uint64) (Sym, bool) {
	if i, ok := im.byAddr[va]; ok {
		return im.Syms[i], true
	}
	return Sym{}, false
}

// FunctionContaining returns the function symbol whose range covers va.
// For symbols without size information the function extends to the next
// symbol or the end of the text section.
func (im *Image) FunctionContaining(va uint64) (Sym, uint64, bool) {
	i := sort.Search(len(im.Syms), func(i int) bool { return im.Syms[i].Addr > va })
	for i--; i >= 0; i-- {
		s := im.Syms[i]
		if !s.Func {
			continue
		}
		end := s.Addr + s.Size
		if s.Size == 0 {
			end = im.Text.VA + im.Text.Size
			for j := i + 1; j < len(im.Syms); j++ {
				if im.Syms[j].Addr > s.Addr {
					end = im.Syms[j].Addr
					break
				}
			}
		}
		if va < end {
			return s, end, true
		}
		return Sym{}, 0, false
	}
	return Sym{}, 0, false
}

// VA2Off translates a virtual address to a file offset.
func (im *Image) VA2Off(va uint64) (uint64, bool) {
	for _, l := range im.Loads {
		if va >= l.Vaddr && va < l.Vaddr+l.Filesz {
			return l.Off + (va - l.Vaddr), true
		}
	}
	return 0, false
}

// ReadBytesVA reads size bytes at the given virtual address.
func (im *Image) ReadBytesVA(va uint64, size int) ([]byte, bool) {
	off, ok := im.VA2Off(va)
	if !ok || off+uint64(size) > uint64(len(im.All)) {
		return nil, false
	}
	return im.All[off : off+uint64(size)], true
}

// InText reports whether va falls inside the executable section.
func (im *Image) InText(va uint64) bool {
	return va >= im.Text.VA && va < im.Text.VA+im.Text.Size
}
