// Package tool is the per-player policy layer over capture and replay.
//
// A Manager keeps one Session per requester. A session owns a clipboard
// snapshot, the area-copy toggle and the paste offsets. The Manager also
// owns the replay Scheduler that runs at most one paste per requester.
//
// Manager is not safe for concurrent use. Like the runtime it drives, it is
// called from the simulation tick only.
package tool
