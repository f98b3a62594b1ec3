package avc

import "sort"

// storedRef is one picture held for reference, with the marking
// metadata that drives pic_num derivation and list ordering.
type storedRef struct {
	pic         *Picture
	frameNum    int
	poc         int32
	longTerm    bool
	longTermIdx int32
	nonExisting bool // inserted for a frame_num gap, never output
}

// dpb is the decoded picture buffer: the reference pictures of the
// current sequence plus the bookkeeping of Section 8.2.5. Output
// reordering lives separately in reorderQueue.
type dpb struct {
	refs     []*storedRef
	maxRef   int
	maxFrame int
	maxLTIdx int32 // MMCO op 4 state; -1 while long terms are disabled
	gray     *Picture
}

func newDPB(sps *SPS) *dpb {
	maxRef := int(sps.MaxNumRefFrames)
	if bound := int(levelMaxDpbFrames(sps)); maxRef > bound {
		maxRef = bound
	}
	if maxRef < 1 {
		maxRef = 1
	}
	return &dpb{
		maxRef:   maxRef,
		maxFrame: 1 << sps.Log2MaxFrameNum,
		maxLTIdx: -1,
	}
}

func (d *dpb) reset() {
	d.refs = d.refs[:0]
	d.maxLTIdx = -1
}

// picNum derives a short-term reference's PicNum against the current
// frame_num (8.2.4.1, frame coding).
func (d *dpb) picNum(r *storedRef, curFrameNum int) int {
	if r.frameNum > curFrameNum {
		return r.frameNum - d.maxFrame
	}
	return r.frameNum
}

func (d *dpb) findShort(picNum, curFrameNum int) *storedRef {
	for _, r := range d.refs {
		if !r.longTerm && d.picNum(r, curFrameNum) == picNum {
			return r
		}
	}
	return nil
}

func (d *dpb) findLong(idx int32) *storedRef {
	for _, r := range d.refs {
		if r.longTerm && r.longTermIdx == idx {
			return r
		}
	}
	return nil
}

func (d *dpb) remove(target *storedRef) {
	for i, r := range d.refs {
		if r == target {
			d.refs = append(d.refs[:i], d.refs[i+1:]...)
			return
		}
	}
}

// grayRef lazily builds the fallback picture handed out when a
// reference index resolves to nothing.
func (d *dpb) grayRef(sps *SPS) *Picture {
	if d.gray == nil || !d.gray.compatible(sps) {
		d.gray = grayPicture(sps)
	}
	return d.gray
}

// buildLists assembles the initial reference lists for a slice
// (8.2.4.2), applies its modification operations (8.2.4.3) and
// sizes the result to num_ref_idx. The second return counts entries
// that had to be padded or could not be resolved.
func (d *dpb) buildLists(hdr *SliceHeader, curPOC int32) ([2][]refPicture, int) {
	var lists [2][]refPicture
	if hdr.Type == SliceTypeI {
		return lists, 0
	}

	var shorts, longs []*storedRef
	for _, r := range d.refs {
		if r.longTerm {
			longs = append(longs, r)
		} else {
			shorts = append(shorts, r)
		}
	}
	sort.SliceStable(longs, func(i, j int) bool {
		return longs[i].longTermIdx < longs[j].longTermIdx
	})

	missing := 0
	if hdr.Type == SliceTypeP {
		cur := int(hdr.FrameNum)
		sort.SliceStable(shorts, func(i, j int) bool {
			return d.picNum(shorts[i], cur) > d.picNum(shorts[j], cur)
		})
		l0 := append(append([]*storedRef(nil), shorts...), longs...)
		l0, miss := d.applyMods(l0, hdr.RefListModL0, hdr)
		missing += miss
		lists[0], miss = d.finishList(l0, int(hdr.NumRefIdxL0), hdr.SPS)
		missing += miss
		return lists, missing
	}

	before := filterByPOC(shorts, func(poc int32) bool { return poc < curPOC })
	after := filterByPOC(shorts, func(poc int32) bool { return poc >= curPOC })
	sort.SliceStable(before, func(i, j int) bool { return before[i].poc > before[j].poc })
	sort.SliceStable(after, func(i, j int) bool { return after[i].poc < after[j].poc })

	l0 := append(append(append([]*storedRef(nil), before...), after...), longs...)
	l1 := append(append(append([]*storedRef(nil), after...), before...), longs...)
	if len(l1) > 1 && sameRefs(l0, l1) {
		l1[0], l1[1] = l1[1], l1[0]
	}

	var miss int
	l0, miss = d.applyMods(l0, hdr.RefListModL0, hdr)
	missing += miss
	l1, miss = d.applyMods(l1, hdr.RefListModL1, hdr)
	missing += miss
	lists[0], miss = d.finishList(l0, int(hdr.NumRefIdxL0), hdr.SPS)
	missing += miss
	lists[1], miss = d.finishList(l1, int(hdr.NumRefIdxL1), hdr.SPS)
	missing += miss
	return lists, missing
}

func filterByPOC(refs []*storedRef, keep func(int32) bool) []*storedRef {
	var out []*storedRef
	for _, r := range refs {
		if keep(r.poc) {
			out = append(out, r)
		}
	}
	return out
}

func sameRefs(a, b []*storedRef) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// applyMods runs the ref_pic_list_modification chain: each resolved
// picture is inserted at the next index and its later duplicate
// dropped, which reorders without losing entries (8.2.4.3).
func (d *dpb) applyMods(list []*storedRef, mods []RefListMod, hdr *SliceHeader) ([]*storedRef, int) {
	if len(mods) == 0 {
		return list, 0
	}
	curPicNum := int(hdr.FrameNum)
	pred := curPicNum
	missing := 0
	at := 0
	for _, m := range mods {
		var target *storedRef
		switch m.Op {
		case refModShortSub, refModShortAdd:
			diff := int(m.AbsDiffPicNum)
			noWrap := pred - diff
			if m.Op == refModShortAdd {
				noWrap = pred + diff
				if noWrap >= d.maxFrame {
					noWrap -= d.maxFrame
				}
			} else if noWrap < 0 {
				noWrap += d.maxFrame
			}
			pred = noWrap
			picNum := noWrap
			if picNum > curPicNum {
				picNum -= d.maxFrame
			}
			target = d.findShort(picNum, curPicNum)
		case refModLongTerm:
			target = d.findLong(int32(m.LongTermPicNum))
		}
		if target == nil {
			missing++
			continue
		}
		if at > len(list) {
			at = len(list)
		}
		list = insertRef(list, at, target)
		at++
	}
	return list, missing
}

func insertRef(list []*storedRef, at int, r *storedRef) []*storedRef {
	list = append(list, nil)
	copy(list[at+1:], list[at:])
	list[at] = r
	for i := at + 1; i < len(list); i++ {
		if list[i] == r {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

// finishList sizes a list to num_ref_idx, repeating the first entry
// or falling back to gray when the buffer has nothing to offer.
func (d *dpb) finishList(list []*storedRef, numRefIdx int, sps *SPS) ([]refPicture, int) {
	if numRefIdx <= 0 {
		return nil, 0
	}
	out := make([]refPicture, 0, numRefIdx)
	for _, r := range list {
		if len(out) == numRefIdx {
			break
		}
		out = append(out, refPicture{pic: r.pic, longTerm: r.longTerm})
	}
	missing := numRefIdx - len(out)
	if missing > 0 {
		fill := refPicture{pic: d.grayRef(sps)}
		if len(out) > 0 {
			fill = out[0]
		}
		for len(out) < numRefIdx {
			out = append(out, fill)
		}
	}
	return out, missing
}

// mark applies dec_ref_pic_marking for a just-decoded reference
// picture and stores it (8.2.5). Reports whether an mmco 5 reset
// happened, so the caller can rebase POC and frame_num state.
func (d *dpb) mark(pic *Picture, hdr *SliceHeader) bool {
	m := &hdr.Marking
	if hdr.IDR {
		d.refs = d.refs[:0]
		if m.LongTermReferenceFlag {
			d.maxLTIdx = 0
			d.store(&storedRef{pic: pic, frameNum: pic.FrameNum, poc: pic.POC, longTerm: true})
		} else {
			d.maxLTIdx = -1
			d.store(&storedRef{pic: pic, frameNum: pic.FrameNum, poc: pic.POC})
		}
		return false
	}

	mmco5 := false
	storeLongIdx := int32(-1)
	cur := pic.FrameNum
	if m.Adaptive {
		for _, op := range m.Ops {
			switch op.Op {
			case 1:
				if r := d.findShort(cur-int(op.DiffOfPicNums), cur); r != nil {
					d.remove(r)
				}
			case 2:
				if r := d.findLong(int32(op.LongTermPicNum)); r != nil {
					d.remove(r)
				}
			case 3:
				r := d.findShort(cur-int(op.DiffOfPicNums), cur)
				if r == nil {
					break
				}
				if old := d.findLong(int32(op.LongTermFrameIdx)); old != nil {
					d.remove(old)
				}
				r.longTerm = true
				r.longTermIdx = int32(op.LongTermFrameIdx)
			case 4:
				d.maxLTIdx = op.MaxLongTermFrameIdx
				for _, r := range append([]*storedRef(nil), d.refs...) {
					if r.longTerm && r.longTermIdx > d.maxLTIdx {
						d.remove(r)
					}
				}
			case 5:
				d.refs = d.refs[:0]
				d.maxLTIdx = -1
				pic.FrameNum = 0
				pic.POC = 0
				cur = 0
				mmco5 = true
			case 6:
				if old := d.findLong(int32(op.LongTermFrameIdx)); old != nil {
					d.remove(old)
				}
				storeLongIdx = int32(op.LongTermFrameIdx)
			}
		}
	} else {
		d.slidingWindow(cur)
	}

	r := &storedRef{pic: pic, frameNum: pic.FrameNum, poc: pic.POC}
	if storeLongIdx >= 0 {
		r.longTerm = true
		r.longTermIdx = storeLongIdx
	}
	d.store(r)
	return mmco5
}

// slidingWindow evicts the short-term reference with the lowest
// wrapped frame number while the buffer is at capacity (8.2.5.3).
func (d *dpb) slidingWindow(curFrameNum int) {
	for len(d.refs) >= d.maxRef {
		victim := d.lowestShort(curFrameNum)
		if victim == nil {
			return
		}
		d.remove(victim)
	}
}

func (d *dpb) lowestShort(curFrameNum int) *storedRef {
	var victim *storedRef
	for _, r := range d.refs {
		if r.longTerm {
			continue
		}
		if victim == nil || d.picNum(r, curFrameNum) < d.picNum(victim, curFrameNum) {
			victim = r
		}
	}
	return victim
}

// store appends a reference and enforces capacity, preferring to
// keep long terms when a non-conforming stream overfills the buffer.
func (d *dpb) store(r *storedRef) {
	d.refs = append(d.refs, r)
	for len(d.refs) > d.maxRef {
		victim := d.lowestShort(r.frameNum)
		if victim == nil {
			for _, lt := range d.refs {
				if victim == nil || lt.longTermIdx < victim.longTermIdx {
					victim = lt
				}
			}
		}
		d.remove(victim)
	}
}

// fillGaps inserts gray "non-existing" short-term references for the
// frame_num values an encoder skipped (8.2.5.2), so reference
// indices keep lining up. Returns how many were inserted.
func (d *dpb) fillGaps(sps *SPS, prevRefFrameNum, frameNum int) int {
	if !sps.GapsInFrameNumAllowed {
		return 0
	}
	next := (prevRefFrameNum + 1) % d.maxFrame
	if next == frameNum {
		return 0
	}
	gap := (frameNum - next + d.maxFrame) % d.maxFrame
	if gap > d.maxRef {
		// Older values would be evicted immediately anyway.
		next = (frameNum - d.maxRef + d.maxFrame) % d.maxFrame
	}
	poc := int32(0)
	for _, r := range d.refs {
		if !r.longTerm && r.poc > poc {
			poc = r.poc
		}
	}
	n := 0
	for ; next != frameNum; next = (next + 1) % d.maxFrame {
		pic := grayPicture(sps)
		pic.FrameNum = next
		pic.POC = poc
		d.slidingWindow(frameNum)
		d.store(&storedRef{pic: pic, frameNum: next, poc: poc, nonExisting: true})
		n++
	}
	return n
}

// reorderQueue buffers decoded pictures until their order count says
// they can leave, keyed by (POC, decode order).
type reorderQueue struct {
	entries []reorderEntry
	seq     uint64
}

type reorderEntry struct {
	pic *Picture
	seq uint64
}

func (q *reorderQueue) push(pic *Picture) {
	q.entries = append(q.entries, reorderEntry{pic: pic, seq: q.seq})
	q.seq++
}

// emitReady pops the lowest-ordered pictures until at most max
// remain buffered.
func (q *reorderQueue) emitReady(max int) []*Picture {
	if max < 0 {
		max = 0
	}
	var out []*Picture
	for len(q.entries) > max {
		best := 0
		for i := 1; i < len(q.entries); i++ {
			e, b := q.entries[i], q.entries[best]
			if e.pic.POC < b.pic.POC || (e.pic.POC == b.pic.POC && e.seq < b.seq) {
				best = i
			}
		}
		out = append(out, q.entries[best].pic)
		q.entries = append(q.entries[:best], q.entries[best+1:]...)
	}
	return out
}

func (q *reorderQueue) flush() []*Picture {
	return q.emitReady(0)
}

// drop discards everything buffered, for IDR pictures that request
// no output of prior pictures.
func (q *reorderQueue) drop() {
	q.entries = q.entries[:0]
}
