// Package parser turns stored raw posts into the aggregate checkin dataset
// and the venue registry.
//
// Posts are processed per brewery in ascending post id order, starting past
// the parse checkpoint. Every post commits its dataset changes and the
// checkpoint before the next post starts, so an interrupted run resumes
// exactly where it stopped. The checkin title grammar, the rating suffix
// and the username extraction follow the Untappd RSS post format; posts
// that do not match it are logged and stepped over.
package parser
